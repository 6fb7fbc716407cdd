package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	availabilityrepo "mentorhub/internal/availability/repository"
	"mentorhub/internal/availability/resolver"
	"mentorhub/internal/bookings/repository"
	"mentorhub/internal/bookings/service"
	"mentorhub/internal/bookings/validator"
	mentorsrepo "mentorhub/internal/mentors/repository"
	"mentorhub/internal/notifications"
	"mentorhub/internal/reminders"
	"mentorhub/pkg/config"
	"mentorhub/pkg/kafka"
	kafka_config "mentorhub/pkg/kafka/config"
	kafkamiddleware "mentorhub/pkg/kafka/middleware"
	"mentorhub/pkg/sealer"
)

const JobName = "reminders"

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load(cfg.Log)
	metrics := kafkamiddleware.NewMetrics()
	producer, err := notifications.NewProducer(cfg, kafkaCfg, metrics)
	if err != nil {
		cfg.Log.Fatal("Failed to start notifications producer", "error", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close notifications producer", "error", err)
		}
		metrics.Log(cfg.Log)
	}()

	job := initJob(cfg, producer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting reminder job", "interval", cfg.ReminderInterval)
	if err := job.Run(ctx); err != nil {
		cfg.Log.Error("Reminder job stopped", "error", err)
	}
	cfg.Log.Info("Reminder job stopped")
}

func initJob(cfg *config.Config, producer *kafka.Producer) *reminders.Job {
	seal, err := sealer.New(cfg.ReferenceSecret)
	if err != nil {
		cfg.Log.Fatal("Invalid booking reference secret", "error", err)
	}
	notifier, err := notifications.NewKafkaNotifier(cfg, producer, seal)
	if err != nil {
		cfg.Log.Fatal("Failed to build notifier", "error", err)
	}

	mentorRepo := mentorsrepo.NewMongoMentorRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	slotResolver := resolver.New(
		mentorRepo,
		availabilityrepo.NewMongoRuleRepository(cfg),
		availabilityrepo.NewMongoBlockedDateRepository(cfg),
		bookingRepo,
		resolver.OptionsFromConfig(cfg),
		cfg.Log,
	)

	// Completion goes through the booking service so the status change stays conditional.
	// The job never creates bookings, so the Mongo locker is never touched.
	bookingService := service.NewBookingService(
		bookingRepo,
		repository.NewMongoSlotLocker(cfg),
		mentorRepo,
		slotResolver,
		notifier,
		seal,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	return reminders.NewJob(bookingRepo, mentorRepo, bookingService, notifier, cfg.ReminderInterval, cfg.Log)
}
