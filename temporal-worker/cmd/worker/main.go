package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cx-tal-miterani/flight-surety-system/shared/config"
	"github.com/cx-tal-miterani/flight-surety-system/shared/logging"
	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/activities"
	apiclient "github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/client"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/dispatcher"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/oracles"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/repository"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/workflows"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
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

	var bond int64
	if cfg.Oracles.Bond != "" {
		if bond, err = models.ParseUnits(cfg.Oracles.Bond); err != nil {
			log.Fatalf("Invalid oracle bond: %v", err)
		}
	}

	// Connect to Temporal
	log.Infof("Connecting to Temporal at %s...", cfg.Temporal.HostPort)
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.NewTemporalLogger(log),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer c.Close()
	log.Info("Connected to Temporal")

	api := apiclient.New(apiclient.Config{BaseURL: cfg.Oracles.APIURL})
	fleet := oracles.NewFleet(cfg.Oracles.Seed)

	var store activities.Store
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		repo := repository.NewRepository(pool)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		saved, err := repo.ListOracles(context.Background(), cfg.Oracles.IDPrefix)
		if err != nil {
			log.Fatalf("Failed to load oracle registrations: %v", err)
		}
		for _, reg := range saved {
			fleet.Add(reg)
		}
		log.WithField("oracles", len(saved)).Info("Loaded stored oracle registrations")
		store = repo
	}

	// Create worker
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.OracleRegistrationWorkflow)
	w.RegisterWorkflow(workflows.FlightStatusWorkflow)

	// Create and register activities
	acts := activities.NewActivities(api, fleet, store)
	w.RegisterActivityWithOptions(acts.RegisterOracle, activity.RegisterOptions{Name: activities.RegisterOracleName})
	w.RegisterActivityWithOptions(acts.MatchingOracles, activity.RegisterOptions{Name: activities.MatchingOraclesName})
	w.RegisterActivityWithOptions(acts.SubmitOracleResponse, activity.RegisterOptions{Name: activities.SubmitOracleResponseName})

	if err := w.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The fleet lives in this process, so it is registered (or recovered)
	// before any request is answered.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "oracle-registration-" + cfg.Oracles.IDPrefix,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.OracleRegistrationWorkflow, models.OracleRegistrationInput{
		OracleIDs: oracles.IDs(cfg.Oracles.IDPrefix, cfg.Oracles.Count),
		Bond:      bond,
		Attempts:  cfg.Oracles.RegistrationAttempts,
	})
	if err != nil {
		log.Fatalf("Failed to start oracle registration: %v", err)
	}

	var registration models.OracleRegistrationResult
	if err := run.Get(ctx, &registration); err != nil {
		log.Fatalf("Oracle registration failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"registered": len(registration.Registered),
		"failed":     len(registration.Failed),
		"fleet":      fleet.Size(),
	}).Info("Oracle fleet ready")

	d := dispatcher.New(api, c, cfg.Temporal.TaskQueue, log)
	log.Info("Listening for oracle requests...")
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Dispatcher failed: %v", err)
	}

	log.Info("Worker stopped")
}
