package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/database"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/handlers"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/metrics"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/middleware"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/router"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/service"
	"github.com/cx-tal-miterani/flight-surety-system/api-server/internal/websocket"
	"github.com/cx-tal-miterani/flight-surety-system/shared/config"
	"github.com/cx-tal-miterani/flight-surety-system/shared/logging"
	"github.com/cx-tal-miterani/flight-surety-system/shared/surety"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", os.Getenv("SURETY_CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	engineCfg, err := cfg.Engine.SuretyConfig()
	if err != nil {
		log.Fatalf("Invalid engine configuration: %v", err)
	}
	genesis, err := cfg.Genesis.SuretyGenesis()
	if err != nil {
		log.Fatalf("Invalid genesis configuration: %v", err)
	}
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	engine, err := surety.New(engineCfg, genesis,
		surety.WithLogger(log),
		surety.WithIndexSource(surety.NewSeededSource(seed)),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Event fan-out
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	engine.Subscribe(surety.Filter{}, hub.Publish)

	collector := metrics.NewCollector()
	collector.RegisterVault(engine)
	engine.Subscribe(surety.Filter{}, collector.ObserveEvent)

	journalDone := make(chan struct{})
	if cfg.Database.URL != "" {
		pool, err := database.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		repo := database.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		journal := database.NewJournal(repo, cfg.Database.JournalBuffer, log)
		engine.Subscribe(surety.Filter{}, journal.Record)
		go func() {
			journal.Run(ctx)
			close(journalDone)
		}()
		log.Info("Event journal enabled")
	} else {
		close(journalDone)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, log)
		go limiter.RunCleanup(ctx, 5*time.Minute)
	}

	// Initialize services
	suretyService := service.NewSuretyService(engine, log)
	h := handlers.NewHandler(suretyService, log)

	r := router.NewRouter(router.Options{
		Handler: h,
		Hub:     hub,
		Metrics: collector,
		Limiter: limiter,
		Log:     log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"addr":  srv.Addr,
			"owner": engine.Owner(),
		}).Info("API Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	stop()
	select {
	case <-journalDone:
	case <-shutdownCtx.Done():
		log.Warn("Journal did not drain before shutdown timeout")
	}

	log.Info("Server stopped")
}
