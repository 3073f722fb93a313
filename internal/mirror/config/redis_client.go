package config

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the redis backend connection settings.
type RedisConfig struct {
	Host         string `env:"MIRROR_REDIS_HOST" envDefault:"localhost"`
	Port         string `env:"MIRROR_REDIS_PORT" envDefault:"6379"`
	Password     string `env:"MIRROR_REDIS_PASSWORD"`
	Database     int    `env:"MIRROR_REDIS_DATABASE" envDefault:"0"`
	MaxRetries   int    `env:"MIRROR_REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize     int    `env:"MIRROR_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int    `env:"MIRROR_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS    bool   `env:"MIRROR_REDIS_TLS" envDefault:"false"`
	KeyPrefix    string `env:"MIRROR_REDIS_KEY_PREFIX" envDefault:"mirror"`
}

// Addr returns the host:port address.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewRedisClient creates a redis client from the configuration.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		ConnMaxIdleTime: 30 * time.Minute,
		ConnMaxLifetime: time.Hour,
	}

	if cfg.EnableTLS {
		options.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	return redis.NewClient(options)
}
