package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/config"
	"github.com/cinevault/cinevault/internal/server"
	"github.com/cinevault/cinevault/internal/store"
)

const banner = `
  ___ _          __   __          _ _
 / __(_)_ _  ___\ \ / /_ _ _  _ | | |_
| (__| | ' \/ -_)\ V / _' | || || |  _|
 \___|_|_||_\___| \_/\__,_|\_,_||_|\__|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CineVault API server",
		Long:  "Start the HTTP server that exposes the catalog, watchlist, review, and admin APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logLevel := parseLogLevel(cfg.Logging.Level)
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := newLogger(cfg.Logging.Format, logLevel)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = viper.GetString("jwt_secret")
	}
	if jwtSecret == "" {
		if !dev {
			return fmt.Errorf("no JWT secret configured: set auth.jwt_secret or CINEVAULT_JWT_SECRET")
		}
		jwtSecret = "cinevault-dev-secret-change-me"
		logger.Warn("using development JWT secret; do not run this in production")
	}
	ttl, err := time.ParseDuration(cfg.Auth.JWTExpiry)
	if err != nil || ttl <= 0 {
		ttl = time.Hour
	}
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: jwtSecret,
		TTL:    ttl,
		Issuer: cfg.Auth.Issuer,
	})

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "driver", cfg.Database.Driver)

	hasAdmin, err := st.HasAnyAdmin(cmd.Context())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: cinevault admin create")
	}

	shutdownTimeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	srvCfg := server.Config{
		Host:                   cfg.Server.Host,
		Port:                   cfg.Server.Port,
		ShutdownTimeout:        shutdownTimeout,
		CORSOrigins:            cfg.Server.CORS.Origins,
		RequestsPerMinute:      cfg.Server.RequestsPerMinute,
		LoginRequestsPerMinute: cfg.Server.LoginRequestsPerMinute,
	}

	srv := server.New(srvCfg, st, tokens, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ API base:   http://%s:%d/api/v1\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

// loadConfig reads the config file selected by --config or the default
// search path, falling back to defaults when no file exists.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if used := viper.ConfigFileUsed(); used != "" {
			path = used
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
