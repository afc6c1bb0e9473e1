package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wallarm/pgbouncer-config-reload/internal/config"
	"github.com/wallarm/pgbouncer-config-reload/internal/daemon"
	"github.com/wallarm/pgbouncer-config-reload/internal/logger"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	configFile    string
	configPath    string
	host          string
	port          int
	user          string
	password      string
	database      string
	reloadTimeout int
	metricsAddr   string
	logFile       string
	verbose       int
	jsonLog       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pgbouncer-config-reload",
		Short: "Watch PgBouncer configuration files and reload on change",
		Long: `pgbouncer-config-reload is a sidecar that watches PgBouncer configuration
directories (pgbouncer.ini, userlist, TLS material mounted from ConfigMaps
or Secrets) and issues RELOAD on the PgBouncer admin console when
Kubernetes swaps in updated contents.

Every flag can also be set through its environment variable, e.g.
CONFIG_PATH, PGBOUNCER_HOST, PGBOUNCER_PASSWORD.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&configFile, "config", "", "optional YAML config file")
	f.StringVarP(&configPath, "config-path", "c", "", "semicolon-separated paths to watch (e.g. /etc/pgbouncer;/etc/userlist)")
	f.StringVarP(&host, "pgbouncer-host", "H", "", "pgbouncer host")
	f.IntVarP(&port, "pgbouncer-port", "p", 0, "pgbouncer port (default 6432)")
	f.StringVarP(&user, "pgbouncer-user", "u", "", "pgbouncer admin user (default pgbouncer)")
	f.StringVarP(&password, "pgbouncer-password", "P", "", "pgbouncer admin password")
	f.StringVarP(&database, "pgbouncer-database", "d", "", "pgbouncer admin database (default pgbouncer)")
	f.IntVarP(&reloadTimeout, "reload-timeout", "t", 0, "seconds to wait before reloading pgbouncer (default 10)")
	f.StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics and health probes, empty disables (default :9127)")
	f.StringVar(&logFile, "log-file", "", "log to a rotating file instead of stderr")
	f.CountVarP(&verbose, "verbose", "v", "verbosity (-v -vv -vvv)")
	f.BoolVarP(&jsonLog, "json-log", "j", false, "enable JSON-formatted logs")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pgbouncer-config-reload %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.InitLogger(logger.Options{
		Verbosity: cfg.Verbose,
		JSON:      cfg.JSONLog,
		LogFile:   cfg.LogFile,
	})
	defer logger.Close()

	logger.Info("Initialization complete",
		"version", version,
		"watch_paths", cfg.WatchPaths(),
		"pgbouncer", fmt.Sprintf("%s:%d", cfg.Connection.Host, cfg.Connection.Port),
		"reload_timeout", cfg.ReloadDelay(),
	)

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Signal received, shutting down")
	}()

	return d.Run(ctx)
}

// loadConfig layers flags over environment over the optional file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("config-path") {
		cfg.ConfigPath = configPath
	}
	if flags.Changed("pgbouncer-host") {
		cfg.Connection.Host = host
	}
	if flags.Changed("pgbouncer-port") {
		cfg.Connection.Port = port
	}
	if flags.Changed("pgbouncer-user") {
		cfg.Connection.User = user
	}
	if flags.Changed("pgbouncer-password") {
		cfg.Connection.Password = password
	}
	if flags.Changed("pgbouncer-database") {
		cfg.Connection.Database = database
	}
	if flags.Changed("reload-timeout") {
		cfg.ReloadTimeout = reloadTimeout
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("json-log") {
		cfg.JSONLog = jsonLog
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
