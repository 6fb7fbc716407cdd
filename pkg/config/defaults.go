package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "mentorhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisDB          = 0
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 5
	DefaultLogFileMaxAgeDays = 14

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultTimezone                = "UTC"
	DefaultSlotGranularityMin      = 0 // 0 steps candidates by the requested duration
	DefaultAvailabilityMergePolicy = MergePolicyUnion
	DefaultMaxBlockedRangeDays     = 366
	DefaultMaxRulesPerBatch        = 50

	DefaultSlotLockBackend = SlotLockRedis
	DefaultSlotLockTTL     = 10 * time.Second

	DefaultWizardSessionTTL = 30 * time.Minute

	DefaultReadRetryAttempts        = 3
	DefaultReadRetryInitialInterval = 100 * time.Millisecond
	DefaultReadRetryMaxInterval     = 2 * time.Second

	DefaultReminderInterval = 5 * time.Minute

	DefaultNotificationsTopic    = "booking-notifications"
	DefaultNotificationsDLQTopic = "booking-notifications-dlq"
	DefaultNotifierGroupID       = "notifier"

	DefaultAppBaseURL   = "http://localhost:3000"
	DefaultAppName      = "MentorHub"
	DefaultSupportEmail = "support@mentorhub.local"

	DefaultSMTPPort    = 587
	DefaultSMTPTimeout = 30 * time.Second
)

const (
	MergePolicyUnion    = "union"
	MergePolicyOverride = "override"

	SlotLockRedis = "redis"
	SlotLockMongo = "mongo"
)
