package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS,optional"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS,optional"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME,optional"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME,optional"`
}

type RedisConfig struct {
	// Empty address disables the idempotency response cache.
	Addr string `env:"REDIS_ADDR,optional"`
}

type KafkaConfig struct {
	// Empty broker list disables event publishing.
	Brokers []string `env:"KAFKA_BROKERS,optional"`
}
