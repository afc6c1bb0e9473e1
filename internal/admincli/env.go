// Package admincli implements the pgbouncer-admin console helper: it
// resolves connection parameters from the environment, picks an
// invocation mode from the argument list, and hands off to psql.
package admincli

// ConnectionParameters holds everything needed to reach the admin
// console. Values are passed to psql verbatim; nothing is validated
// here, psql reports its own errors for malformed input. Port stays a
// string for that reason.
type ConnectionParameters struct {
	Host     string
	Port     string
	User     string
	Database string
	Password string
}

// Default connection parameters, applied per field when the
// corresponding variable is unset or empty.
const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = "5432"
	DefaultUser     = "admin"
	DefaultDatabase = "pgbouncer"
)

// LookupFunc reports an environment variable's value and whether it is
// set, matching os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolve builds ConnectionParameters from an environment snapshot.
// An unset or empty variable falls back to its default independently
// of the others. The password has no default.
func Resolve(lookup LookupFunc) ConnectionParameters {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	return ConnectionParameters{
		Host:     get("PGBOUNCER_HOST", DefaultHost),
		Port:     get("PGBOUNCER_PORT", DefaultPort),
		User:     get("PGBOUNCER_USER", DefaultUser),
		Database: get("PGBOUNCER_DATABASE", DefaultDatabase),
		Password: get("PGBOUNCER_PASSWORD", ""),
	}
}
