package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env                 string        `env:"ENV" env-default:"local"`
	Port                string        `env:"PORT" env-default:"8080"`
	DatabaseURL         string        `env:"DATABASE_URL" env-required:"true"`
	AuthToken           string        `env:"AUTH_TOKEN" env-required:"true"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET" env-required:"true"`
	MetricsAddr         string        `env:"METRICS_ADDR" env-default:":9090"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	DBConnectAttempts   uint          `env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	DBConnectDelay      time.Duration `env:"DB_CONNECT_DELAY" env-default:"1s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
