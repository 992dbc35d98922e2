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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"cohort/internal/catalog"
	cataloghandler "cohort/internal/catalog/handler"
	catalogservice "cohort/internal/catalog/service"
	"cohort/internal/directory"
	"cohort/internal/gating"
	gatinghandler "cohort/internal/gating/handler"
	"cohort/internal/platform/config"
	"cohort/internal/platform/httpserver"
	"cohort/internal/platform/jwtauth"
	"cohort/internal/platform/logger"
	"cohort/internal/platform/metrics"
	"cohort/internal/response"
	responsehandler "cohort/internal/response/handler"
	responseservice "cohort/internal/response/service"
	httptransport "cohort/internal/transport/http"
	"cohort/pkg/platform/audit"
	"cohort/pkg/platform/audit/publisher"
	auditmemory "cohort/pkg/platform/audit/store/memory"
	auditpostgres "cohort/pkg/platform/audit/store/postgres"
	"cohort/pkg/platform/audit/worker"
)

// main wires stores, services and the HTTP surface, then supervises the
// server and background workers until a shutdown signal arrives. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		catalogStore  catalog.Store
		responseStore response.Store
		dirStore      directory.Store
		auditStore    audit.Store
		db            *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err.Error())
			os.Exit(1)
		}
		catalogStore = catalog.NewPostgres(db)
		responseStore = response.NewPostgres(db)
		dirStore = directory.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		catalogStore = catalog.NewInMemoryStore()
		responseStore = response.NewInMemoryStore()
		dirStore = directory.NewInMemoryStore()
		auditStore = auditmemory.New()
	}

	m := metrics.New()
	auditor := audit.NewPublisher(256)

	catalogSvc := catalogservice.New(catalogStore, log, m, auditor)
	responseSvc := responseservice.New(responseStore, catalogSvc, log, m, auditor)
	gatingSvc := gating.New(dirStore, catalogSvc, responseStore, cfg.RegistryStudyExternalID, log, m, auditor)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: jwtauth.New(cfg.JWTSigningKey),
		Metrics:   m,
		Handlers: []httptransport.Registrar{
			cataloghandler.New(catalogSvc, log),
			responsehandler.New(responseSvc, log),
			gatinghandler.New(gatingSvc, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return worker.NewWorker(auditStore, auditor.Inbox()).Run(groupCtx)
	})

	if db != nil && cfg.KafkaBrokers != "" {
		outbox, err := publisher.NewOutbox(db, strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic, log)
		if err != nil {
			log.Error("failed to start audit outbox publisher", "error", err.Error())
			os.Exit(1)
		}
		group.Go(func() error {
			return outbox.Run(groupCtx)
		})
	}

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
