package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"detailbook/pkg/client"
	"detailbook/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	reMongoURI      = regexp.MustCompile(`^mongodb(\+srv)?://`)
	reCountryCode   = regexp.MustCompile(`^[A-Z]{2}$`)
	reMongoUserPass = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultPhoneCountry string

	ServiceCompletedTopic    string
	ServiceCompletedDLQTopic string
	CustomerEventsTopic      string
	ProfileEventsTopic       string
	ConsumerGroup            string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment. Invalid
// configuration is fatal.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          LookupString(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: LookupString(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  LookupDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: LookupString(EnvPort, DefaultPort),

		RateLimitRequests: LookupInt(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   LookupDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: LookupDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: LookupDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: LookupInt(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     LookupDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    LookupDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     LookupDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: LookupDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultPhoneCountry: strings.ToUpper(LookupString(EnvDefaultPhoneCountry, DefaultPhoneCountry)),

		ServiceCompletedTopic:    LookupString(EnvServiceCompletedTopic, DefaultServiceCompletedTopic),
		ServiceCompletedDLQTopic: LookupString(EnvServiceCompletedDLQTopic, DefaultServiceCompletedDLQTopic),
		CustomerEventsTopic:      LookupString(EnvCustomerEventsTopic, DefaultCustomerEventsTopic),
		ProfileEventsTopic:       LookupString(EnvProfileEventsTopic, DefaultProfileEventsTopic),
		ConsumerGroup:            LookupString(EnvConsumerGroup, DefaultConsumerGroup),

		Log: logger.New(logger.Config{
			Level:     LookupString(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if envFileErr != nil && !os.IsNotExist(envFileErr) {
		cfg.Log.Warn("Failed to read .env file", "error", envFileErr)
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !reMongoURI.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if !reCountryCode.MatchString(cfg.DefaultPhoneCountry) {
		errors = append(errors, fmt.Sprintf("DefaultPhoneCountry must be an ISO 3166-1 alpha-2 code, got: %s", cfg.DefaultPhoneCountry))
	}

	for _, topic := range []struct{ name, value string }{
		{"ServiceCompletedTopic", cfg.ServiceCompletedTopic},
		{"ServiceCompletedDLQTopic", cfg.ServiceCompletedDLQTopic},
		{"CustomerEventsTopic", cfg.CustomerEventsTopic},
		{"ProfileEventsTopic", cfg.ProfileEventsTopic},
		{"ConsumerGroup", cfg.ConsumerGroup},
	} {
		if strings.TrimSpace(topic.value) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", topic.name))
		}
	}
	if cfg.ServiceCompletedTopic != "" && cfg.ServiceCompletedTopic == cfg.ServiceCompletedDLQTopic {
		errors = append(errors, "ServiceCompletedDLQTopic must differ from ServiceCompletedTopic")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_phone_country", cfg.DefaultPhoneCountry,
		"topic_services_completed", cfg.ServiceCompletedTopic,
		"topic_services_completed_dlq", cfg.ServiceCompletedDLQTopic,
		"topic_customer_events", cfg.CustomerEventsTopic,
		"topic_profile_events", cfg.ProfileEventsTopic,
		"consumer_group", cfg.ConsumerGroup,
	)
}

func redactMongoURI(uri string) string {
	return reMongoUserPass.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
