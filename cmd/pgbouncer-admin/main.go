package main

import (
	"os"

	"github.com/wallarm/pgbouncer-config-reload/internal/admincli"
)

func main() {
	os.Exit(admincli.Main(os.Args[1:]))
}
