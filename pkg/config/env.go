package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisUsername    = "REDIS_USERNAME"
	EnvRedisPassword    = "REDIS_PASSWORD"
	EnvRedisDB          = "REDIS_DB"
	EnvRedisPoolSize    = "REDIS_POOL_SIZE"
	EnvRedisDialTimeout = "REDIS_DIAL_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvLogFile           = "LOG_FILE"
	EnvLogFileMaxSizeMB  = "LOG_FILE_MAX_SIZE_MB"
	EnvLogFileMaxBackups = "LOG_FILE_MAX_BACKUPS"
	EnvLogFileMaxAgeDays = "LOG_FILE_MAX_AGE_DAYS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultTimezone         = "DEFAULT_TIMEZONE"
	EnvSlotGranularityMin      = "SLOT_GRANULARITY_MIN"
	EnvAvailabilityMergePolicy = "AVAILABILITY_MERGE_POLICY"
	EnvMaxBlockedRangeDays     = "MAX_BLOCKED_RANGE_DAYS"
	EnvMaxRulesPerBatch        = "MAX_RULES_PER_BATCH"

	EnvSlotLockBackend = "SLOT_LOCK_BACKEND"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"

	EnvWizardSessionTTL = "WIZARD_SESSION_TTL"

	EnvReadRetryAttempts        = "READ_RETRY_ATTEMPTS"
	EnvReadRetryInitialInterval = "READ_RETRY_INITIAL_INTERVAL"
	EnvReadRetryMaxInterval     = "READ_RETRY_MAX_INTERVAL"

	EnvReminderInterval = "REMINDER_INTERVAL"

	EnvNotificationsTopic    = "NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifierGroupID       = "NOTIFIER_GROUP_ID"

	EnvReferenceSecret = "BOOKING_REFERENCE_SECRET"
	EnvAppBaseURL      = "APP_BASE_URL"
	EnvAppName         = "APP_NAME"
	EnvSupportEmail    = "SUPPORT_EMAIL"

	EnvSMTPEnabled  = "SMTP_ENABLED"
	EnvSMTPFrom     = "SMTP_FROM"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPUseTLS   = "SMTP_USE_TLS"
	EnvSMTPTimeout  = "SMTP_TIMEOUT"
)
