package main

import (
	"context"

	"detailbook/internal/customers/consumer"
	"detailbook/internal/customers/handler"
	"detailbook/internal/customers/repository"
	"detailbook/internal/customers/service"
	"detailbook/internal/customers/validator"
	"detailbook/pkg/app"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/kafka"
	kafka_config "detailbook/pkg/kafka/config"
	kafka_middleware "detailbook/pkg/kafka/middleware"
	"detailbook/pkg/metrics"
)

const ServiceName = "customers"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	m := metrics.New(ServiceName)

	kafkaCfg, err := kafka_config.Load(ServiceName)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	customerService := initServices(cfg, m)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.CustomerEventsTopic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware(m))

	completions := consumer.NewServiceCompletedHandler(customerService, producer, m, cfg.Log)
	serviceConsumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ServiceCompletedTopic,
		cfg.ConsumerGroup,
		cfg.ServiceCompletedDLQTopic,
		completions.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	serviceConsumer.Use(kafka_middleware.MetricsConsumerMiddleware(m))
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		serviceConsumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Starting Customers service",
		"consume_topic", cfg.ServiceCompletedTopic,
		"publish_topic", cfg.CustomerEventsTopic,
	)
	serverApp := app.NewApplication(cfg, m)
	serverApp.AddWorker(func(ctx context.Context) error {
		return serviceConsumer.Start(ctx)
	})
	// closers run in reverse: consumer first, then the producer it feeds
	serverApp.OnShutdown(producer.Close)
	serverApp.OnShutdown(serviceConsumer.Close)
	serverApp.SetApp(handler.NewCustomerHandler(customerService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, m *metrics.Metrics) service.CustomerService {
	customerRepo := repository.NewMongoCustomerRepository(cfg, mongotx.NewTransactionManager(cfg.Client.Mongo))
	customerService := service.NewCustomerService(
		customerRepo,
		validator.NewCustomerValidator(),
		m,
		cfg,
	)

	cfg.Log.Info("Customer service initialized", "database", cfg.MongoDatabaseName)
	return customerService
}
