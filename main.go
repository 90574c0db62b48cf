package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"park-ops/internal/api"
	"park-ops/internal/app"
	"park-ops/internal/attendance"
	"park-ops/internal/auth"
	"park-ops/internal/backup"
	"park-ops/internal/catalog"
	"park-ops/internal/config"
	"park-ops/internal/history"
	"park-ops/internal/kafka"
	"park-ops/internal/logger"
	"park-ops/internal/roster"
	"park-ops/internal/staffimport"
	"park-ops/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// seedCatalog fills empty catalog collections from the seed file, if there is one.
func seedCatalog(ctx context.Context, path string, svc *catalog.Service, log *logger.Logger) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info("CATALOG", fmt.Sprintf("No catalog seed at %s, skipping", path))
		return
	}
	seed, err := catalog.LoadSeedFile(path)
	if err != nil {
		log.Error("CATALOG", fmt.Sprintf("Failed to load catalog seed: %v", err))
		return
	}
	written, err := svc.Apply(ctx, seed)
	if err != nil {
		log.Error("CATALOG", fmt.Sprintf("Failed to apply catalog seed: %v", err))
		return
	}
	log.Info("CATALOG", fmt.Sprintf("Catalog seed applied to %d collections", len(written)))
}

// connectKafka returns nil when Kafka is disabled; audit records then stay in the store only.
func connectKafka(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) *kafka.Producer {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, audit events will not be published")
		return nil
	}
	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, kafka.Topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	producer := kafka.NewProducer(cfg.Brokers, log)
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Brokers))
	return producer
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir, logger.ParseLevel(cfg.Log.Level))
	defer log.Close()

	log.Info("APP", "Starting park operations service")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	tag, err := language.Parse(cfg.Park.Locale)
	if err != nil {
		log.Warn("CONFIG", fmt.Sprintf("Unknown PARK_LOCALE %q, using English name ordering", cfg.Park.Locale))
		tag = language.English
	}
	roster.SetLocale(tag)

	ctx := context.Background()

	log.Info("APP", fmt.Sprintf("Connecting %s record store", cfg.Store.Driver))
	backend, err := app.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("STORE", err.Error())
	}
	defer backend.Close()

	collections := store.NewCollections(backend.Store, log, cfg.Store.ReadTimeout)

	var publisher history.Publisher
	if producer := connectKafka(ctx, cfg.Kafka, log); producer != nil {
		defer producer.Close()
		publisher = producer
	}
	historyLog := history.NewLog(collections, publisher, log)

	seedCatalog(ctx, cfg.Park.CatalogSeed, catalog.NewService(collections, historyLog, log), log)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewAuthenticator(cfg.Auth.PINs, collections, log)
	for role, pin := range cfg.Auth.PINs {
		if pin == "" {
			log.Warn("AUTH", fmt.Sprintf("No PIN configured for %s, that role cannot sign in", role))
		}
	}

	imports := staffimport.NewManager(staffimport.NewStoreApplier(collections, historyLog, log), cfg.Park.ImportTTL)
	badges := attendance.NewBadgeGenerator(cfg.Auth.BadgeSecret)

	handler := api.NewHandler(backend.Store, collections, historyLog, authenticator, issuer, badges, imports, log)
	handler.MaxUploadBytes = cfg.Server.MaxUploadBytes
	handler.HistoryPageSize = cfg.Park.HistoryLimit
	handler.Location = cfg.Location()
	if backend.Redis != nil {
		handler.Revoker = auth.NewRedisRevoker(backend.Redis)
		log.Info("AUTH", "Sign-out revocation backed by Redis")
	}

	if cfg.Backup.Enabled {
		scheduler := backup.NewScheduler(backend.Store, cfg.Backup.Dir, cfg.Backup.Keep, log)
		if err := scheduler.Start(cfg.Backup.Schedule); err != nil {
			log.Error("BACKUP", err.Error())
		} else {
			defer scheduler.Stop()
		}
	}

	log.Info("HTTP", "Setting up router and middleware")
	// Cancelled on shutdown so open event streams end.
	baseCtx, cancelBase := context.WithCancel(ctx)
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	go func() {
		log.Info("HTTP", fmt.Sprintf("Park operations service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Park operations service shutdown complete")
	}
}
