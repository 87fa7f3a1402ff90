package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP        HTTP        `envPrefix:"HTTP_"`
		Logger      Logger      `envPrefix:"LOGGER_"`
		Telemetry   Telemetry   `envPrefix:"TELEMETRY_"`
		Store       Store       `envPrefix:"STORE_"`
		Upstream    Upstream    `envPrefix:"UPSTREAM_"`
		Definitions Definitions `envPrefix:"DEFINITIONS_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"mapproxy"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	// Store selects the meta-tile store backend. "file" is the default
	// on-disk store; "sqlite" and "redis" are alternatives behind the
	// same interface.
	Store struct {
		Backend    string        `env:"BACKEND" envDefault:"file"`
		BaseDir    string        `env:"BASE_DIR" envDefault:"./cache_data"`
		SQLitePath string        `env:"SQLITE_PATH" envDefault:"./cache_data/tiles.db"`
		Redis      Redis         `envPrefix:"REDIS_"`
		TTL        time.Duration `env:"TTL" envDefault:"0"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}

	Upstream struct {
		Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
		RetryAttempts uint64        `env:"RETRY_ATTEMPTS" envDefault:"2"`
		RetryBackoff  time.Duration `env:"RETRY_BACKOFF" envDefault:"250ms"`
	}

	Definitions struct {
		Path string `env:"PATH" envDefault:"mapproxy.yaml"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
