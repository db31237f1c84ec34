package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "simdash/docs"
	"simdash/internal/config"
	"simdash/internal/handlers"
	"simdash/internal/logger"
	"simdash/internal/mailer"
	"simdash/internal/metrics"
	"simdash/internal/realtime"
	"simdash/internal/repository"
	"simdash/internal/repository/db"
	"simdash/internal/server"
	"simdash/internal/service"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

// @title           simdash API
// @version         1.0
// @description     Simulation dashboard backend: event logs, validated procedures, realtime notifications and todos.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml + SIMDASH_* env
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get("info").Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	metrics.Init()

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	broker := realtime.NewBroker(cfg.Realtime.Buffer)
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Options{
		SigningKey:     cfg.Auth.SigningKey,
		TokenTTL:       cfg.Auth.TokenTTL,
		AlertRecipient: cfg.Alerts.Recipient,
		Publisher:      broker,
		Mailer:         newMailer(cfg, log),
		Log:            log,
	})
	apiHandler := handlers.NewHandler(services, broker, log.Named("http"))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Generator.Enabled {
		go services.Generator.Run(ctx, cfg.Generator.Tick)
	} else {
		log.Infow("generator_disabled")
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// newMailer returns nil when no email API is configured; alerts then fail
// with a fallback payload instead of being sent.
func newMailer(cfg *config.Config, log *logger.Logger) service.Mailer {
	if cfg.Alerts.EmailAPIURL == "" {
		log.Warnw("alerts.email_api_url not set; critical alerts will not be delivered")
		return nil
	}
	return mailer.NewHTTPMailer(cfg.Alerts.EmailAPIURL, cfg.Alerts.APIKey, cfg.Alerts.Timeout)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
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
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
