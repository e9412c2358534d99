package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"alarmdesk/internal/handlers"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/metrics"
	"alarmdesk/internal/repository"
	"alarmdesk/internal/server"
	"alarmdesk/internal/service"

	"github.com/spf13/viper"
)

// @title           Alarmdesk API
// @version         1.0
// @description     Alarm aggregation and triage service: polls configured sources, folds occurrences into lineages and serves the triage surface.

// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// register prometheus collectors before anything can observe
	metrics.Init()

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, log, serviceOptions(log))
	metrics.RegisterCountdown(services.Countdown)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the poll loop (via composed service)
	go services.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, listenAddr(), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return viper.ReadInConfig()
}

// serviceOptions collects the service tunables from configuration. Zero
// values fall back to the service defaults.
func serviceOptions(log *logger.Logger) service.Options {
	signingKey := viper.GetString("auth.signing_key")
	if signingKey == "" {
		log.Fatalw("auth.signing_key must be set (config or AUTH_SIGNING_KEY)")
	}
	return service.Options{
		PollInterval:  viper.GetDuration("poll.interval"),
		SourceTimeout: viper.GetDuration("poll.source_timeout"),
		SigningKey:    signingKey,
		TokenTTL:      viper.GetDuration("auth.token_ttl"),
	}
}

// listenAddr resolves the configured listen address, defaulting to :8080.
func listenAddr() string {
	if addr := viper.GetString("server.addr"); addr != "" {
		return addr
	}
	return "8080"
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "alarmdesk.db")
		dbPath = "alarmdesk.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, addr string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(addr, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
