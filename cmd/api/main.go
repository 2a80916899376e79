package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/azizikri/project-eligibility/db"
	"github.com/azizikri/project-eligibility/internal/config"
	httphandler "github.com/azizikri/project-eligibility/internal/delivery/http"
	"github.com/azizikri/project-eligibility/internal/delivery/kafka"
	"github.com/azizikri/project-eligibility/internal/repository"
	"github.com/azizikri/project-eligibility/internal/scheduler"
	"github.com/azizikri/project-eligibility/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := initDB(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, db.Migrations, "migrations", log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	store := repository.New(pool)
	service := usecase.NewAccountService(store, cfg.EligibilityRule(), log)

	if cfg.PreloadSessions() {
		if _, err := service.Preload(ctx); err != nil {
			log.WithError(err).Warn("session preload incomplete")
		}
	}

	sched, err := scheduler.New(cfg.ResyncSchedule, service, time.Minute, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}
	sched.Start()

	var kafkaClient *kgo.Client
	if cfg.EventDriven() {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(brokers...),
			kgo.ClientID(cfg.KafkaClientID),
			kgo.ConsumerGroup(cfg.KafkaGroupID),
			kgo.ConsumeTopics(kafka.TopicMutationRequest),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			log.WithError(err).Fatal("failed to create kafka client")
		}

		if err := kafka.EnsureTopics(ctx, kafkaClient, cfg, log); err != nil {
			log.WithError(err).Warn("failed to ensure topics")
		}

		consumer := kafka.NewConsumer(kafkaClient, service, log)
		go consumer.Start(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: httphandler.NewRouter(httphandler.NewHandler(service), log),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("port", cfg.AppPort).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown error")
	}
	sched.Stop(shutdownCtx)

	if kafkaClient != nil {
		kafkaClient.Close()
	}

	wg.Wait()
	log.Info("shutdown complete")
}

func initDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
