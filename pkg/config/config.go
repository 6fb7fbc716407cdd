package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mentorhub/pkg/client"
	"mentorhub/pkg/email"
	"mentorhub/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr        string
	RedisUsername    string
	RedisPassword    string
	RedisDB          int
	RedisPoolSize    int
	RedisDialTimeout time.Duration

	Port      string
	LogLevel  string
	LogFormat string

	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	LogFileMaxAgeDays int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultTimezone         string
	SlotGranularityMin      int
	AvailabilityMergePolicy string
	MaxBlockedRangeDays     int
	MaxRulesPerBatch        int

	SlotLockBackend string
	SlotLockTTL     time.Duration

	WizardSessionTTL time.Duration

	ReadRetryAttempts        int
	ReadRetryInitialInterval time.Duration
	ReadRetryMaxInterval     time.Duration

	ReminderInterval time.Duration

	NotificationsTopic    string
	NotificationsDLQTopic string
	NotifierGroupID       string

	ReferenceSecret string
	AppBaseURL      string
	AppName         string
	SupportEmail    string

	SMTPEnabled  bool
	SMTPFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool
	SMTPTimeout  time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment (after an optional .env file), builds the service logger and
// exits the process when the configuration is invalid.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv(serviceName)

	var file *logger.FileConfig
	if cfg.LogFile != "" {
		file = &logger.FileConfig{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogFileMaxSizeMB,
			MaxBackups: cfg.LogFileMaxBackups,
			MaxAgeDays: cfg.LogFileMaxAgeDays,
			Compress:   true,
		}
	}
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
		File:      file,
	})

	if cfg.ReferenceSecret == "" {
		cfg.ReferenceSecret = ephemeralSecret()
		cfg.Log.Warn("BOOKING_REFERENCE_SECRET not set, booking references will not survive a restart")
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads every setting from the environment without side effects.
func FromEnv(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:        getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisUsername:    getEnvStr(EnvRedisUsername, ""),
		RedisPassword:    getEnvStr(EnvRedisPassword, ""),
		RedisDB:          getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisPoolSize:    getEnvNum(EnvRedisPoolSize, DefaultRedisPoolSize),
		RedisDialTimeout: getEnvDuration(EnvRedisDialTimeout, DefaultRedisDialTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		LogFile:           getEnvStr(EnvLogFile, ""),
		LogFileMaxSizeMB:  getEnvNum(EnvLogFileMaxSizeMB, DefaultLogFileMaxSizeMB),
		LogFileMaxBackups: getEnvNum(EnvLogFileMaxBackups, DefaultLogFileMaxBackups),
		LogFileMaxAgeDays: getEnvNum(EnvLogFileMaxAgeDays, DefaultLogFileMaxAgeDays),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultTimezone:         getEnvStr(EnvDefaultTimezone, DefaultTimezone),
		SlotGranularityMin:      getEnvNum(EnvSlotGranularityMin, DefaultSlotGranularityMin),
		AvailabilityMergePolicy: strings.ToLower(getEnvStr(EnvAvailabilityMergePolicy, DefaultAvailabilityMergePolicy)),
		MaxBlockedRangeDays:     getEnvNum(EnvMaxBlockedRangeDays, DefaultMaxBlockedRangeDays),
		MaxRulesPerBatch:        getEnvNum(EnvMaxRulesPerBatch, DefaultMaxRulesPerBatch),

		SlotLockBackend: strings.ToLower(getEnvStr(EnvSlotLockBackend, DefaultSlotLockBackend)),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		WizardSessionTTL: getEnvDuration(EnvWizardSessionTTL, DefaultWizardSessionTTL),

		ReadRetryAttempts:        getEnvNum(EnvReadRetryAttempts, DefaultReadRetryAttempts),
		ReadRetryInitialInterval: getEnvDuration(EnvReadRetryInitialInterval, DefaultReadRetryInitialInterval),
		ReadRetryMaxInterval:     getEnvDuration(EnvReadRetryMaxInterval, DefaultReadRetryMaxInterval),

		ReminderInterval: getEnvDuration(EnvReminderInterval, DefaultReminderInterval),

		NotificationsTopic:    getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotificationsDLQTopic: getEnvStr(EnvNotificationsDLQTopic, DefaultNotificationsDLQTopic),
		NotifierGroupID:       getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		ReferenceSecret: getEnvStr(EnvReferenceSecret, ""),
		AppBaseURL:      strings.TrimSuffix(getEnvStr(EnvAppBaseURL, DefaultAppBaseURL), "/"),
		AppName:         getEnvStr(EnvAppName, DefaultAppName),
		SupportEmail:    getEnvStr(EnvSupportEmail, DefaultSupportEmail),

		SMTPEnabled:  getEnvBool(EnvSMTPEnabled, false),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, ""),
		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPUseTLS:   getEnvBool(EnvSMTPUseTLS, false),
		SMTPTimeout:  getEnvDuration(EnvSMTPTimeout, DefaultSMTPTimeout),

		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, client.RedisOptions{
		Addr:        cfg.RedisAddr,
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		PoolSize:    cfg.RedisPoolSize,
		DialTimeout: cfg.RedisDialTimeout,
	})
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.RedisDialTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RedisDialTimeout must be positive, got: %s", cfg.RedisDialTimeout))
	}

	for name, d := range map[string]time.Duration{
		"RateLimitWindow":          cfg.RateLimitWindow,
		"RequestTimeout":           cfg.RequestTimeout,
		"IdempotencyTTL":           cfg.IdempotencyTTL,
		"ReadTimeout":              cfg.ReadTimeout,
		"WriteTimeout":             cfg.WriteTimeout,
		"IdleTimeout":              cfg.IdleTimeout,
		"ShutdownTimeout":          cfg.ShutdownTimeout,
		"SlotLockTTL":              cfg.SlotLockTTL,
		"WizardSessionTTL":         cfg.WizardSessionTTL,
		"ReadRetryInitialInterval": cfg.ReadRetryInitialInterval,
		"ReadRetryMaxInterval":     cfg.ReadRetryMaxInterval,
		"ReminderInterval":         cfg.ReminderInterval,
		"SMTPTimeout":              cfg.SMTPTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("DefaultTimezone must be a valid IANA zone, got: %s", cfg.DefaultTimezone))
	}
	if cfg.SlotGranularityMin < 0 || cfg.SlotGranularityMin > 240 {
		errors = append(errors, fmt.Sprintf("SlotGranularityMin must be between 0 and 240, got: %d", cfg.SlotGranularityMin))
	}
	if cfg.AvailabilityMergePolicy != MergePolicyUnion && cfg.AvailabilityMergePolicy != MergePolicyOverride {
		errors = append(errors, fmt.Sprintf("AvailabilityMergePolicy must be one of [union, override], got: %s", cfg.AvailabilityMergePolicy))
	}
	if cfg.MaxBlockedRangeDays < 1 {
		errors = append(errors, fmt.Sprintf("MaxBlockedRangeDays must be positive, got: %d", cfg.MaxBlockedRangeDays))
	}
	if cfg.MaxRulesPerBatch < 1 {
		errors = append(errors, fmt.Sprintf("MaxRulesPerBatch must be positive, got: %d", cfg.MaxRulesPerBatch))
	}
	if cfg.SlotLockBackend != SlotLockRedis && cfg.SlotLockBackend != SlotLockMongo {
		errors = append(errors, fmt.Sprintf("SlotLockBackend must be one of [redis, mongo], got: %s", cfg.SlotLockBackend))
	}
	if cfg.ReadRetryAttempts < 1 || cfg.ReadRetryAttempts > 5 {
		errors = append(errors, fmt.Sprintf("ReadRetryAttempts must be between 1 and 5, got: %d", cfg.ReadRetryAttempts))
	}

	if cfg.NotificationsTopic == "" {
		errors = append(errors, "NotificationsTopic cannot be empty")
	}
	if cfg.ReferenceSecret != "" {
		if key, err := base64.StdEncoding.DecodeString(cfg.ReferenceSecret); err != nil || len(key) != 32 {
			errors = append(errors, "BookingReferenceSecret must be a base64-encoded 32 byte key")
		}
	}

	if cfg.SMTPEnabled {
		if cfg.SMTPHost == "" {
			errors = append(errors, "SMTPHost is required when SMTP is enabled")
		}
		if cfg.SMTPFrom == "" {
			errors = append(errors, "SMTPFrom is required when SMTP is enabled")
		}
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
		}
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
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"redis_password_set", cfg.RedisPassword != "",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_timezone", cfg.DefaultTimezone,
		"slot_granularity_min", cfg.SlotGranularityMin,
		"availability_merge_policy", cfg.AvailabilityMergePolicy,
		"max_blocked_range_days", cfg.MaxBlockedRangeDays,
		"slot_lock_backend", cfg.SlotLockBackend,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"wizard_session_ttl", cfg.WizardSessionTTL,
		"read_retry_attempts", cfg.ReadRetryAttempts,
		"reminder_interval", cfg.ReminderInterval,
		"notifications_topic", cfg.NotificationsTopic,
		"notifications_dlq_topic", cfg.NotificationsDLQTopic,
		"app_base_url", cfg.AppBaseURL,
		"smtp_enabled", cfg.SMTPEnabled,
		"smtp_host", cfg.SMTPHost,
		"smtp_password_set", cfg.SMTPPassword != "",
	)
}

// Location returns the fallback timezone for mentors without a profile timezone.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (cfg *Config) Email() email.Config {
	return email.Config{
		Enabled:  cfg.SMTPEnabled,
		From:     cfg.SMTPFrom,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		UseTLS:   cfg.SMTPUseTLS,
		Timeout:  cfg.SMTPTimeout,
	}
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func ephemeralSecret() string {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return base64.StdEncoding.EncodeToString(key)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
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
