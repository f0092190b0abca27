package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kamaljeyaram/Matrix/config"
	"github.com/Kamaljeyaram/Matrix/internal/handler"
	bookingHandler "github.com/Kamaljeyaram/Matrix/internal/handler/booking"
	clinicianHandler "github.com/Kamaljeyaram/Matrix/internal/handler/clinician"
	meetingHandler "github.com/Kamaljeyaram/Matrix/internal/handler/meeting"
	patientHandler "github.com/Kamaljeyaram/Matrix/internal/handler/patient"
	telegramHandler "github.com/Kamaljeyaram/Matrix/internal/handler/telegram"
	"github.com/Kamaljeyaram/Matrix/internal/middleware"
	"github.com/Kamaljeyaram/Matrix/internal/repository/postgres"
	"github.com/Kamaljeyaram/Matrix/internal/router"
	bookingService "github.com/Kamaljeyaram/Matrix/internal/service/booking"
	meetingService "github.com/Kamaljeyaram/Matrix/internal/service/meeting"
	"github.com/Kamaljeyaram/Matrix/internal/telegram"
	"github.com/Kamaljeyaram/Matrix/pkg/logger"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	meetingRepo := postgres.NewMeetingRepository(baseRepo)
	appointmentRepo := postgres.NewAppointmentRepository(baseRepo)
	patientRepo := postgres.NewPatientRepository(baseRepo)
	clinicianRepo := postgres.NewClinicianRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	m := metrics.New("healthstream")

	meetingSvc := meetingService.NewService(meetingRepo, cfg.Meeting.LinkBase, m)
	bookingSvc := bookingService.NewService(
		&baseRepo,
		appointmentRepo,
		patientRepo,
		clinicianRepo,
		outboxRepo,
		meetingSvc,
	)

	tgCfg := cfg.Telegram.ToClientConfig()
	tgCfg.Logger = &appLogger.ZL
	tgCfg.Metrics = m
	tgClient, err := telegram.NewClient(tgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram client")
	}

	h := handler.NewHandler(db)
	r := router.NewRouter(
		h,
		bookingHandler.NewHandler(bookingSvc),
		meetingHandler.NewHandler(meetingSvc, m),
		patientHandler.NewHandler(patientRepo),
		clinicianHandler.NewHandler(clinicianRepo),
		telegramHandler.NewHandler(tgClient),
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORS:           middleware.DefaultCORSConfig(),
			MetricsPrefix:  "healthstream",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
