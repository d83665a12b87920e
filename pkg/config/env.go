package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultPhoneCountry = "DEFAULT_PHONE_COUNTRY"

	EnvServiceCompletedTopic    = "KAFKA_TOPIC_SERVICES_COMPLETED"
	EnvServiceCompletedDLQTopic = "KAFKA_TOPIC_SERVICES_COMPLETED_DLQ"
	EnvCustomerEventsTopic      = "KAFKA_TOPIC_CUSTOMER_EVENTS"
	EnvProfileEventsTopic       = "KAFKA_TOPIC_PROFILE_EVENTS"
	EnvConsumerGroup            = "KAFKA_CONSUMER_GROUP"
)
