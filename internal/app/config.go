package app

import (
	"time"

	"github.com/yungbote/neurobridge-grading/internal/platform/envutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	ServiceName string
	Version     string

	JWTSecretKey string
	CORSOrigins  string

	BatchConcurrency int
	GeneratorTimeout time.Duration
	LockBackend      string
	CacheTTL         time.Duration

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:             envutil.String("PORT", "8080"),
		Environment:      envutil.String("APP_ENV", "development"),
		ServiceName:      envutil.String("OTEL_SERVICE_NAME", "neurobridge-grading"),
		Version:          envutil.String("APP_VERSION", "dev"),
		JWTSecretKey:     envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:      envutil.String("CORS_ALLOWED_ORIGINS", ""),
		BatchConcurrency: envutil.Int("GRADING_BATCH_CONCURRENCY", 4),
		GeneratorTimeout: envutil.Duration("GRADING_GENERATOR_TIMEOUT", 90*time.Second),
		LockBackend:      envutil.String("GRADING_LOCK_BACKEND", "db"),
		CacheTTL:         envutil.Duration("GRADING_CACHE_TTL", 10*time.Minute),
		MetricsAddr:      envutil.String("METRICS_ADDR", ":9090"),
	}
	if cfg.JWTSecretKey == "" && log != nil {
		log.Warn("JWT_SECRET_KEY is empty; every authenticated request will be rejected")
	}
	return cfg
}
