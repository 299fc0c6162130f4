package app

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/config"
	"github.com/md-rashed-zaman/staffplan/libs/kafkax"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	ServiceName string
	Port        string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers       []string
	KafkaGroupID       string
	ReportRequestTopic string

	JWTSecret    string
	JWKSURL      string
	JWKSCacheTTL time.Duration
	JWTIssuer    string
	JWTAudience  string

	CORSOrigins        []string
	RateLimitPerMinute int
	RateLimitFailOpen  bool
	BodyLimitBytes     int64
	RequestTimeout     time.Duration

	AvailabilityCacheTTL   time.Duration
	ReportCheckInterval    time.Duration
	ReportAvailabilityDays int
	ReportsGenerateRole    string
	ReportWorkerEnabled    bool
}

func SettingsFromEnv() (Settings, error) {
	s := Settings{
		ServiceName:         config.String("SERVICE_NAME", "staffplan-service"),
		DatabaseURL:         config.String("DATABASE_URL", ""),
		RedisAddr:           config.String("REDIS_ADDR", ""),
		RedisPassword:       config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:        kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		KafkaGroupID:        config.String("KAFKA_GROUP_ID", "staffplan-service"),
		ReportRequestTopic:  config.String("KAFKA_REPORT_REQUEST_TOPIC", "staffplan.report.requested.v1"),
		JWTSecret:           config.String("JWT_SECRET", ""),
		JWKSURL:             config.String("JWT_JWKS_URL", ""),
		JWTIssuer:           config.String("JWT_ISSUER", ""),
		JWTAudience:         config.String("JWT_AUDIENCE", ""),
		CORSOrigins:         config.List("CORS_ALLOWED_ORIGINS"),
		RateLimitFailOpen:   config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		ReportsGenerateRole: config.String("REPORTS_GENERATE_ROLE", ""),
		ReportWorkerEnabled: config.Bool("REPORT_WORKER_ENABLED", true),
	}

	var errs []error
	var err error
	if s.Port, err = config.Port("PORT", "8080"); err != nil {
		errs = append(errs, err)
	}
	if s.RedisDB, err = config.Int("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if s.JWKSCacheTTL, err = config.Duration("JWKS_CACHE_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if s.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		errs = append(errs, err)
	}
	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 10<<20)
	if err != nil {
		errs = append(errs, err)
	}
	s.BodyLimitBytes = int64(bodyLimit)
	if s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if s.AvailabilityCacheTTL, err = config.Duration("AVAILABILITY_CACHE_TTL", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if s.ReportCheckInterval, err = config.Duration("REPORT_CHECK_INTERVAL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if s.ReportAvailabilityDays, err = config.Int("REPORT_AVAILABILITY_DAYS", 30); err != nil {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}

// RequireDatabase reports a missing DATABASE_URL.
func (s Settings) RequireDatabase() error {
	if s.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// RequireAuth reports that no way to validate tokens was configured.
func (s Settings) RequireAuth() error {
	if s.JWTSecret == "" && s.JWKSURL == "" {
		return errors.New("JWT_SECRET or JWT_JWKS_URL is required")
	}
	return nil
}
