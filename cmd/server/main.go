// main wires high-level dependencies, exposes the HTTP router, and
// keeps the server lifecycle small. Business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"attendly/internal/attendance/gate"
	attendancehandler "attendly/internal/attendance/handler"
	"attendly/internal/attendance/ledger"
	attendancemetrics "attendly/internal/attendance/metrics"
	attendanceservice "attendly/internal/attendance/service"
	"attendly/internal/biometric"
	identityhandler "attendly/internal/identity/handler"
	identityservice "attendly/internal/identity/service"
	identitystore "attendly/internal/identity/store"
	"attendly/internal/nettrust"
	"attendly/internal/platform/config"
	"attendly/internal/platform/httpserver"
	"attendly/internal/platform/logger"
	platformmetrics "attendly/internal/platform/metrics"
	"attendly/internal/platform/postgres"
	platformredis "attendly/internal/platform/redis"
	reportinghandler "attendly/internal/reporting/handler"
	reportingservice "attendly/internal/reporting/service"
	sessionhandler "attendly/internal/session/handler"
	sessionservice "attendly/internal/session/service"
	sessionstore "attendly/internal/session/store"
	httptransport "attendly/internal/transport/http"
	auditpublisher "attendly/pkg/platform/audit/publisher"
	auditsink "attendly/pkg/platform/audit/sink"
	auditmemory "attendly/pkg/platform/audit/store/memory"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Without a database URL everything runs in memory, which
	// keeps local development dependency-free.
	var db *sql.DB
	var users identitystore.Store
	var sessions sessionstore.Store
	var records ledger.Store
	if cfg.DatabaseURL != "" {
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		users = identitystore.NewPostgres(db)
		sessions = sessionstore.NewPostgres(db)
		records = ledger.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		users = identitystore.NewInMemory()
		sessions = sessionstore.NewInMemory()
		records = ledger.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	// Audit pipeline.
	auditOpts := []auditpublisher.Option{auditpublisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer)}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := auditsink.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, log)
		if err != nil {
			log.Error("kafka sink setup failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, auditpublisher.WithSink(sink))
	}
	auditor := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditOpts...)
	defer auditor.Close()

	// Domain services.
	tokens := identityservice.NewTokenIssuer([]byte(cfg.JWTSigningKey), cfg.TokenTTL)
	identity := identityservice.New(users, tokens, auditor, log)
	sessionSvc := sessionservice.New(sessions, cfg.Verification.DefaultRadiusMeters, log)

	var probe nettrust.Probe = nettrust.NewHTTPProbe(
		cfg.Verification.NetworkProbeURL, cfg.Verification.NetworkProbeTimeout, log)
	probe = nettrust.NewCachedProbe(probe, redisClient, cfg.Verification.NetworkCacheTTL, log)

	verifier := gate.New(sessionSvc, identity, probe,
		biometric.NewCosineComparator(cfg.Verification.BiometricThreshold),
		gate.Config{BiometricThreshold: cfg.Verification.BiometricThreshold}, log)
	attendance := attendanceservice.New(verifier,
		ledger.NewService(records, log), attendancemetrics.New(), auditor, log)
	reporting := reportingservice.New(records, users, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    platformmetrics.New(),
		Validator:  tokens,
		Identity:   identityhandler.New(identity, log),
		Sessions:   sessionhandler.New(sessionSvc, log),
		Attendance: attendancehandler.New(attendance, log),
		Reporting:  reportinghandler.New(reporting, log),
		Health: func() error {
			if db != nil {
				if err := db.Ping(); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
