package config

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis server shared by rate limiting and change
// notifications. Redis is optional; without it both fall back to
// in-process implementations.
type RedisConfig struct {
	URL         string        `env:"REDIS_URL" yaml:"url"`
	Password    string        `env:"REDIS_PASSWORD" yaml:"password"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" yaml:"dial_timeout" default:"5s"`
	Channel     string        `env:"REDIS_CHANNEL" yaml:"channel" default:"parallax:memory"`
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Options parses URL (redis:// or rediss://) into client options.
func (r RedisConfig) Options() (*redis.Options, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if r.Password != "" {
		opts.Password = r.Password
	}
	if r.DialTimeout > 0 {
		opts.DialTimeout = r.DialTimeout
	}
	return opts, nil
}

// Validate checks the Redis URL parses when one is set.
func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	_, err := r.Options()
	return err
}
