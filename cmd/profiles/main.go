package main

import (
	"detailbook/internal/profiles/handler"
	"detailbook/internal/profiles/repository"
	"detailbook/internal/profiles/service"
	"detailbook/internal/profiles/validator"
	"detailbook/pkg/app"
	"detailbook/pkg/config"
	"detailbook/pkg/kafka"
	kafka_config "detailbook/pkg/kafka/config"
	kafka_middleware "detailbook/pkg/kafka/middleware"
	"detailbook/pkg/metrics"
)

const ServiceName = "profiles"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	m := metrics.New(ServiceName)

	producer := newProducer(cfg, m)

	cfg.Log.Info("Starting Profiles service")
	serverApp := app.NewApplication(cfg, m)
	serverApp.OnShutdown(producer.Close)
	serverApp.SetApp(handler.NewProfileHandler(initServices(cfg, producer, m), cfg.Log))
	serverApp.Run()
}

func newProducer(cfg *config.Config, m *metrics.Metrics) *kafka.Producer {
	kafkaCfg, err := kafka_config.Load(ServiceName)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ProfileEventsTopic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware(m))
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer, m *metrics.Metrics) service.ProfileService {
	profileService := service.NewProfileService(
		repository.NewMongoProfileRepository(cfg),
		validator.NewProfileValidator(),
		producer,
		m,
		cfg,
	)

	cfg.Log.Info("Profile service initialized", "database", cfg.MongoDatabaseName)
	return profileService
}
