// ProjectHub - multi-tenant accounts and projects API.
//
// This is the main entry point. It wires configuration, storage, the
// optional MQTT/InfluxDB/Redis backends and the HTTP API, then blocks until
// an interrupt or SIGTERM arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/projecthub/migrations"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/api"
	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
	"github.com/nerrad567/projecthub/internal/identity"
	"github.com/nerrad567/projecthub/internal/infrastructure/config"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
	"github.com/nerrad567/projecthub/internal/infrastructure/influxdb"
	"github.com/nerrad567/projecthub/internal/infrastructure/logging"
	"github.com/nerrad567/projecthub/internal/infrastructure/mqtt"
	"github.com/nerrad567/projecthub/internal/project"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ProjectHub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "driver", db.Dialect())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	hasher, err := auth.NewMultiHasher(cfg.Security.Password.Algorithm, auth.Argon2Params{
		Time:      cfg.Security.Password.Argon2.Time,
		MemoryKiB: cfg.Security.Password.Argon2.MemoryKiB,
		Threads:   cfg.Security.Password.Argon2.Threads,
		KeyLength: cfg.Security.Password.Argon2.KeyLength,
		SaltLen:   cfg.Security.Password.Argon2.SaltLen,
	}, cfg.Security.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating secret hasher: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.GetTokenTTL())
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	// Event fan-out: WebSocket hub always, MQTT and InfluxDB when enabled.
	hub := api.NewHub(cfg.WebSocket, log)
	publishers := events.Multi{hub}

	var mqttHealth api.HealthChecker
	mqttClient, err := connectMQTT(cfg, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		mqttEvents := mqtt.NewEventPublisher(mqttClient, log)
		defer func() {
			mqttEvents.Wait()
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		publishers = append(publishers, mqttEvents)
		mqttHealth = mqttClient
	}

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		publishers = append(publishers, influxdb.NewEventCounter(influxClient))
	}

	accounts := account.NewService(account.NewRepository(db), hasher, publishers)
	projects := project.NewService(project.NewRepository(db), publishers)

	if _, err := account.Bootstrap(ctx, accounts, account.RegisterInput{
		EmailAddress: cfg.Security.Bootstrap.Email,
		SecretKey:    cfg.Security.Bootstrap.Secret,
		GivenName:    cfg.Security.Bootstrap.GivenName,
		FamilyName:   cfg.Security.Bootstrap.FamilyName,
	}, log.Logger); err != nil {
		return fmt.Errorf("bootstrapping accounts: %w", err)
	}

	tickets, closeTickets, err := ticketStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTickets()

	srv, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		DB:        db,
		Identity:  identity.NewService(accounts, tokens),
		Accounts:  accounts,
		Projects:  projects,
		Tickets:   tickets,
		TicketTTL: cfg.GetTicketTTL(),
		Hub:       hub,
		MQTT:      mqttHealth,
		Metrics:   influxClient,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if startErr := srv.Start(gctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		log.Info("initialisation complete, waiting for shutdown signal")
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return srv.Close()
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("ProjectHub stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PROJECTHUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PROJECTHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects to the broker when enabled. It returns a nil client
// when MQTT is disabled.
func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.MQTT.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client, nil
}

// connectInfluxDB connects when enabled. It returns a nil client when
// InfluxDB is disabled.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// ticketStore builds the configured WebSocket ticket store. The returned
// func releases its resources.
func ticketStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (api.TicketStore, func(), error) {
	if cfg.Tickets.Backend != config.TicketBackendRedis {
		return api.NewMemoryTicketStore(cfg.GetTicketTTL()), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Tickets.Redis.Addr,
		Password: cfg.Tickets.Redis.Password,
		DB:       cfg.Tickets.Redis.DB,
	})
	store := api.NewRedisTicketStore(client, cfg.Tickets.Redis.KeyPrefix, cfg.GetTicketTTL())
	if err := store.HealthCheck(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	log.Info("Redis ticket store connected", "addr", cfg.Tickets.Redis.Addr)
	return store, func() {
		if err := client.Close(); err != nil {
			log.Error("error closing Redis", "error", err)
		}
	}, nil
}
