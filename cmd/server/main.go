package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"simguard/internal/analyzer"
	analyzerstore "simguard/internal/analyzer/store"
	"simguard/internal/audit"
	cardhandler "simguard/internal/card/handler"
	cardservice "simguard/internal/card/service"
	cardstore "simguard/internal/card/store/card"
	contactstore "simguard/internal/card/store/contact"
	smsstore "simguard/internal/card/store/sms"
	"simguard/internal/clone"
	"simguard/internal/esim"
	esimstore "simguard/internal/esim/store"
	httprouter "simguard/internal/http"
	"simguard/internal/platform/config"
	"simguard/internal/platform/httpserver"
	"simguard/internal/platform/logger"
	"simguard/internal/platform/metrics"
	"simguard/internal/platform/postgres"
	"simguard/internal/platform/redis"
	"simguard/internal/reader"
	"simguard/internal/transfer"
	"simguard/pkg/platform/tx"
)

// stores groups the per-entity persistence picked at startup: PostgreSQL
// when a DSN is configured, in-process memory otherwise.
type stores struct {
	cards    cardservice.CardStore
	contacts cardservice.ContactStore
	sms      cardservice.SMSStore
	analyses interface {
		analyzer.Store
		cardservice.DependentPurger
	}
	profiles interface {
		esim.Store
		cardservice.DependentPurger
	}
	auditLog audit.Store
	runner   tx.Runner
}

func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, *sql.DB, error) {
	if cfg.PostgresDSN == "" {
		log.Info("using in-memory stores")
		return &stores{
			cards:    cardstore.NewInMemory(),
			contacts: contactstore.NewInMemory(),
			sms:      smsstore.NewInMemory(),
			analyses: analyzerstore.NewInMemory(),
			profiles: esimstore.NewInMemory(),
			auditLog: audit.NewInMemoryStore(),
			runner:   tx.Nop{},
		}, nil, nil
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("using postgres stores")
	return &stores{
		cards:    cardstore.NewPostgres(db),
		contacts: contactstore.NewPostgres(db),
		sms:      smsstore.NewPostgres(db),
		analyses: analyzerstore.NewPostgres(db),
		profiles: esimstore.NewPostgres(db),
		auditLog: audit.NewPostgresStore(db),
		runner:   &tx.SQLRunner{DB: db},
	}, db, nil
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx := context.Background()

	st, db, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Error("store setup failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// Kafka fan-out is optional; without brokers the audit trail stays local.
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
	if err != nil {
		log.Error("kafka setup failed", "error", err.Error())
		os.Exit(1)
	}
	pubOpts := []audit.Option{audit.WithAsyncBuffer(256), audit.WithLogger(log)}
	if sink != nil {
		defer sink.Close()
		pubOpts = append(pubOpts, audit.WithSink(sink))
	}
	publisher := audit.NewPublisher(st.auditLog, pubOpts...)
	defer publisher.Close()

	// The clone lock is distributed only when redis is configured.
	var locker clone.Locker = clone.NewInMemoryLocker()
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = clone.NewRedisLocker(redisClient.Client, 30*time.Second)
		log.Info("using redis clone lock")
	}

	source := reader.NewSimulated(nil)

	cardSvc := cardservice.NewService(st.cards, st.contacts, st.sms,
		st.analyses, st.profiles, source, st.runner, publisher, log, m)
	cloneSvc := clone.NewService(st.cards, st.contacts, st.sms, locker,
		st.runner, cfg.CloneIMSI, publisher, log, m)
	analyzerSvc := analyzer.NewService(st.cards, st.analyses, publisher, log, m)
	esimSvc := esim.NewService(st.cards, st.profiles, cfg.SMDPAddress, publisher, log, m)
	transferSvc := transfer.NewService(st.cards, st.contacts, st.sms, publisher, log, m)

	router := httprouter.New(log, m,
		reader.NewHandler(source, log),
		cardhandler.New(cardSvc, log),
		clone.NewHandler(cloneSvc, log),
		analyzer.NewHandler(analyzerSvc, log),
		esim.NewHandler(esimSvc, log),
		transfer.NewHandler(transferSvc, log),
		audit.NewHandler(publisher, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting simguard", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("simguard stopped")
}
