// Package root provides the root command for the coffee shop API server
package root

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bear-san/coffee-shop/internal/config"
	"github.com/bear-san/coffee-shop/internal/database"
	"github.com/bear-san/coffee-shop/internal/environment"
	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/internal/metrics"
	"github.com/bear-san/coffee-shop/pkg/auth0"
	"github.com/bear-san/coffee-shop/pkg/handlers"
)

var (
	configPath string
	host       string
	port       int
	dbPath     string
	resetDB    bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "coffeeshop-server",
	Short: "Drinks API for the coffee shop",
	Long: `A server that lists the coffee shop menu and lets baristas and
managers edit it, authorising requests with Auth0 access tokens`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.Flags().BoolVar(&resetDB, "reset-db", false, "Drop all drinks and seed the database on start")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("db") {
		cfg.Database.Path = dbPath
	}
	if flags.Changed("reset-db") {
		cfg.Database.Reset = resetDB
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	env := environment.Current()
	if err := config.ValidateEnvironment(env); err != nil {
		return fmt.Errorf("environment %s: %w", environment.BuildMode, err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.IsDevelopment(env.Production),
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Reset {
		log.Warn("Resetting drinks database", logger.String("path", cfg.Database.Path))
		if err := database.Reset(ctx, db); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
	}

	idp, err := auth0.New(env.Auth0)
	if err != nil {
		return err
	}
	verifier, err := auth0.NewVerifierForClient(ctx, idp)
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{env.Auth0.CallbackURL}
	}

	if !env.Production {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandler(database.NewDrinkRepository(db), log)
	router := handlers.NewRouter(h, handlers.RouterConfig{
		Verifier:       verifier,
		Metrics:        metrics.New(),
		Logger:         log,
		AllowedOrigins: origins,
		CORSMaxAge:     cfg.CORS.MaxAge,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			logger.String("addr", srv.Addr),
			logger.String("build", environment.BuildMode),
			logger.String("issuer", idp.Issuer()),
			logger.Strings("cors_origins", origins),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		return err
	}

	log.Info("Server exited", logger.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))
	return nil
}
