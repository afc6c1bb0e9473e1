package admincli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Invoker launches psql against the admin console. It is a pure
// passthrough: stdout, stderr, and the exit code are the client's,
// untouched.
type Invoker struct {
	// Binary is the psql executable, resolved via PATH.
	Binary string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewInvoker creates an invoker attached to the process's standard
// streams. PSQL_BIN overrides the client binary.
func NewInvoker() *Invoker {
	binary := os.Getenv("PSQL_BIN")
	if binary == "" {
		binary = "psql"
	}
	return &Invoker{
		Binary: binary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Args builds the psql argument list. The password is never part of
// it; process listings must not expose it.
func (inv *Invoker) Args(params ConnectionParameters, invocation Invocation) []string {
	args := []string{
		"-h", params.Host,
		"-p", params.Port,
		"-U", params.User,
		"-d", params.Database,
	}
	if invocation.Mode == ModeRunCommand {
		args = append(args, "-c", invocation.Command)
	}
	return args
}

// Env builds the child process environment: the parent's environment
// with PGPASSWORD overridden for this single launch.
func (inv *Invoker) Env(params ConnectionParameters) []string {
	return append(os.Environ(), "PGPASSWORD="+params.Password)
}

// Run launches the client and blocks until it exits, returning its
// exit code. Launch failures (binary missing, not executable) are
// printed to stderr and reported as exit code 127, the shell
// convention for command-not-found.
func (inv *Invoker) Run(params ConnectionParameters, invocation Invocation) int {
	cmd := exec.Command(inv.Binary, inv.Args(params, invocation)...)
	cmd.Env = inv.Env(params)
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr

	err := cmd.Run()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	fmt.Fprintf(inv.Stderr, "pgbouncer-admin: %v\n", err)
	return 127
}

// Main is the whole program: dispatch, resolve, invoke. It returns the
// process exit code.
func Main(args []string) int {
	invocation := Dispatch(args)

	if invocation.Mode == ModeHelp {
		fmt.Print(Usage)
		return 0
	}

	params := Resolve(os.LookupEnv)
	return NewInvoker().Run(params, invocation)
}
