package main

import (
	availabilityrepo "mentorhub/internal/availability/repository"
	"mentorhub/internal/availability/resolver"
	"mentorhub/internal/bookings/handler"
	"mentorhub/internal/bookings/repository"
	"mentorhub/internal/bookings/service"
	"mentorhub/internal/bookings/validator"
	mentorsrepo "mentorhub/internal/mentors/repository"
	"mentorhub/internal/notifications"
	wizardhandler "mentorhub/internal/wizard/handler"
	wizardrepo "mentorhub/internal/wizard/repository"
	wizardservice "mentorhub/internal/wizard/service"
	"mentorhub/pkg/app"
	"mentorhub/pkg/config"
	"mentorhub/pkg/kafka"
	kafka_config "mentorhub/pkg/kafka/config"
	kafkamiddleware "mentorhub/pkg/kafka/middleware"
	"mentorhub/pkg/sealer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	kafkaCfg := kafka_config.Load(cfg.Log)
	metrics := kafkamiddleware.NewMetrics()
	producer, err := notifications.NewProducer(cfg, kafkaCfg, metrics)
	if err != nil {
		cfg.Log.Fatal("Failed to start notifications producer", "error", err)
	}

	cfg.Log.Info("Starting Bookings service")
	bookingService, wizardService := initServices(cfg, producer)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Log),
		wizardhandler.NewWizardHandler(wizardService, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close notifications producer", "error", err)
		}
		metrics.Log(cfg.Log)
	})
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initServices(cfg *config.Config, producer *kafka.Producer) (service.BookingService, wizardservice.WizardService) {
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

	bookingService := service.NewBookingService(
		bookingRepo,
		repository.NewSlotLocker(cfg),
		mentorRepo,
		slotResolver,
		notifier,
		seal,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	wizardService := wizardservice.NewWizardService(
		wizardrepo.NewRedisSessionRepository(cfg.Client.Redis, cfg.WizardSessionTTL),
		mentorRepo,
		bookingService,
		slotResolver,
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"slot_lock_backend", cfg.SlotLockBackend,
		"notifications_topic", cfg.NotificationsTopic,
	)
	return bookingService, wizardService
}
