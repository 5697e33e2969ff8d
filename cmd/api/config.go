package main

import (
	"log/slog"
	"time"

	"github.com/Erradzan/Bank-Root/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL,optional"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT,optional"`
	Postgres        config.PostgresConfig
	Redis           config.RedisConfig
	Kafka           config.KafkaConfig
}
