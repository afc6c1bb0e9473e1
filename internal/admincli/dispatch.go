package admincli

import "strings"

// Mode selects what an invocation does.
type Mode int

const (
	// ModeInteractive opens an interactive console session.
	ModeInteractive Mode = iota
	// ModeHelp prints usage and exits.
	ModeHelp
	// ModeRunCommand executes one admin command and exits.
	ModeRunCommand
)

// Invocation is the decision for a single run.
type Invocation struct {
	Mode Mode
	// Command is the joined command text, set only for ModeRunCommand.
	Command string
}

// Dispatch maps an argument list (without the program name) to an
// Invocation. The decision is first-token only: "-h" is help when and
// only when it is the first argument; anywhere else it is part of the
// command text. This matches the historical shell helper exactly.
func Dispatch(args []string) Invocation {
	switch {
	case len(args) == 0:
		return Invocation{Mode: ModeInteractive}
	case args[0] == "-h":
		return Invocation{Mode: ModeHelp}
	default:
		return Invocation{Mode: ModeRunCommand, Command: strings.Join(args, " ")}
	}
}

// Usage is the help text printed for -h.
const Usage = `Usage: pgbouncer-admin [-h] [command ...]

Connect to the PgBouncer admin console with psql.

With no arguments, opens an interactive session. Any arguments are
joined and executed as a single admin console command, for example:

  pgbouncer-admin SHOW POOLS
  pgbouncer-admin RELOAD

Options:
  -h    show this help and exit

Environment:
  PGBOUNCER_HOST      console host (default 127.0.0.1)
  PGBOUNCER_PORT      console port (default 5432)
  PGBOUNCER_USER      admin user (default admin)
  PGBOUNCER_DATABASE  admin database (default pgbouncer)
  PGBOUNCER_PASSWORD  admin password
`
