package main

import (
	availabilityhandler "mentorhub/internal/availability/handler"
	availabilityrepo "mentorhub/internal/availability/repository"
	"mentorhub/internal/availability/resolver"
	availabilityservice "mentorhub/internal/availability/service"
	"mentorhub/internal/availability/validator"
	bookingsrepo "mentorhub/internal/bookings/repository"
	mentorshandler "mentorhub/internal/mentors/handler"
	mentorsrepo "mentorhub/internal/mentors/repository"
	mentorsservice "mentorhub/internal/mentors/service"
	"mentorhub/pkg/app"
	"mentorhub/pkg/config"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Availability service")
	mentorService, availabilityService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		mentorshandler.NewMentorHandler(mentorService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
	)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initServices(cfg *config.Config) (mentorsservice.MentorService, availabilityservice.AvailabilityService) {
	mentorRepo := mentorsrepo.NewMongoMentorRepository(cfg)
	ruleRepo := availabilityrepo.NewMongoRuleRepository(cfg)
	blockedRepo := availabilityrepo.NewMongoBlockedDateRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)

	slotResolver := resolver.New(
		mentorRepo,
		ruleRepo,
		blockedRepo,
		bookingRepo,
		resolver.OptionsFromConfig(cfg),
		cfg.Log,
	)

	availabilityService := availabilityservice.NewAvailabilityService(
		ruleRepo,
		blockedRepo,
		slotResolver,
		validator.NewRuleValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Availability service initialized", "database", cfg.MongoDatabaseName)
	return mentorsservice.NewMentorService(mentorRepo, cfg), availabilityService
}
