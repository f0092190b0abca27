package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Kamaljeyaram/Matrix/config"
	"github.com/Kamaljeyaram/Matrix/internal/email"
	"github.com/Kamaljeyaram/Matrix/internal/repository/postgres"
	meetingService "github.com/Kamaljeyaram/Matrix/internal/service/meeting"
	"github.com/Kamaljeyaram/Matrix/internal/service/notification"
	"github.com/Kamaljeyaram/Matrix/internal/telegram"
	"github.com/Kamaljeyaram/Matrix/pkg/logger"
	"github.com/Kamaljeyaram/Matrix/pkg/messaging/redis"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
	"github.com/Kamaljeyaram/Matrix/pkg/worker"
)

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	meetingRepo := postgres.NewMeetingRepository(baseRepo)

	m := metrics.New("healthstream_worker")

	tgCfg := cfg.Telegram.ToClientConfig()
	tgCfg.Logger = &appLogger.ZL
	tgCfg.Metrics = m
	tgClient, err := telegram.NewClient(tgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telegram client")
	}

	var mailSvc email.Service
	if cfg.Email.Host != "" {
		mailSvc = email.NewService(cfg.Email)
	}

	meetingSvc := meetingService.NewService(meetingRepo, cfg.Meeting.LinkBase, m)
	deliverer := notification.NewService(tgClient, mailSvc, appLogger)

	notifier := worker.NewNotifier(
		outboxRepo,
		meetingSvc,
		deliverer,
		broker,
		cfg.Notifier.ToWorkerConfig(cfg.Meeting.StaleAfter),
		appLogger,
		m,
	)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.ZL.Info().Msg("Shutting down...")
		cancel()
	}()

	notifier.Start(ctx)
}
