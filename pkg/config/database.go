package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DatabaseConfig describes the Postgres connection. Persistence is disabled
// when neither URL nor Host is set.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL" yaml:"url"`
	Host     string `env:"DB_HOST" yaml:"host"`
	Port     int    `env:"DB_PORT" yaml:"port" default:"5432"`
	Name     string `env:"DB_NAME" yaml:"name" default:"parallax"`
	Username string `env:"DB_USER" yaml:"username" default:"postgres"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	SSLMode  string `env:"DB_SSLMODE" yaml:"sslmode" default:"disable"`

	MaxConnections   int           `env:"DB_MAX_CONNECTIONS" yaml:"max_connections" default:"10"`
	MinConnections   int           `env:"DB_MIN_CONNECTIONS" yaml:"min_connections" default:"1"`
	MaxIdleTime      time.Duration `env:"DB_MAX_IDLE_TIME" yaml:"max_idle_time" default:"5m"`
	MaxLifetime      time.Duration `env:"DB_MAX_LIFETIME" yaml:"max_lifetime" default:"30m"`
	ConnectTimeout   time.Duration `env:"DB_CONNECT_TIMEOUT" yaml:"connect_timeout" default:"10s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" yaml:"statement_timeout" default:"30s"`
	AutoMigrate      bool          `env:"DB_AUTO_MIGRATE" yaml:"auto_migrate" default:"true"`
}

// Enabled reports whether a database URL or host is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// GetConnectionString returns URL, or a URL assembled from the parts.
func (d DatabaseConfig) GetConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// GetConnectionConfig adds pgxpool and timeout parameters to the connection
// string. Parameters already present in URL are kept.
func (d DatabaseConfig) GetConnectionConfig() (string, error) {
	u, err := url.Parse(d.GetConnectionString())
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	q := u.Query()
	setDefault := func(key, value string) {
		if q.Get(key) == "" {
			q.Set(key, value)
		}
	}
	setDefault("pool_max_conns", strconv.Itoa(d.MaxConnections))
	setDefault("pool_min_conns", strconv.Itoa(d.MinConnections))
	setDefault("pool_max_conn_idle_time", d.MaxIdleTime.String())
	setDefault("pool_max_conn_lifetime", d.MaxLifetime.String())
	setDefault("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	setDefault("statement_timeout", strconv.FormatInt(d.StatementTimeout.Milliseconds(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Validate checks the connection parts of an enabled database.
func (d DatabaseConfig) Validate() error {
	if !d.Enabled() {
		return nil
	}
	var result *multierror.Error
	if d.URL == "" {
		if d.Port < 1 || d.Port > 65535 {
			result = multierror.Append(result, fmt.Errorf("database port must be between 1-65535, got %d", d.Port))
		}
		if d.Name == "" {
			result = multierror.Append(result, fmt.Errorf("database name is required"))
		}
		if d.Username == "" {
			result = multierror.Append(result, fmt.Errorf("database username is required"))
		}
	} else if _, err := url.Parse(d.URL); err != nil {
		result = multierror.Append(result, fmt.Errorf("database url is invalid: %w", err))
	}
	if d.MaxConnections < 1 {
		result = multierror.Append(result, fmt.Errorf("max_connections must be positive, got %d", d.MaxConnections))
	}
	if d.MinConnections < 0 || d.MinConnections > d.MaxConnections {
		result = multierror.Append(result, fmt.Errorf("min_connections must be between 0 and max_connections (%d), got %d", d.MaxConnections, d.MinConnections))
	}
	return result.ErrorOrNil()
}
