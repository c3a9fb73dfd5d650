package pool

import (
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type DatabaseConfiguration struct {
	MaxOpenConns             *int           `yaml:"maxOpenConns"`
	MinOpenConns             *int           `yaml:"minOpenConns"`
	StatementCacheCapacity   *int           `yaml:"statementCacheCapacity"`
	ConnTimeout              *time.Duration `yaml:"connTimeout"`
	MaxOpenConnTTL           *time.Duration `yaml:"maxOpenConnTTL"`
	MaxIdleConnTTL           *time.Duration `yaml:"maxIdleConnTTL"`
	MaxConnLifetimeJitterTTL *time.Duration `yaml:"maxConnLifetimeJitterTTL"`
	User                     *string        `yaml:"user"`
	Password                 *string        `yaml:"password"`
	Host                     *string        `yaml:"host"`
	Port                     *string        `yaml:"port"`
	Name                     *string        `yaml:"name"`
}

// LoadDatabaseConfiguration reads a yaml file holding a DatabaseConfiguration.
func LoadDatabaseConfiguration(path string) (*DatabaseConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read database configuration")
	}
	var cfg DatabaseConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse database configuration %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg DatabaseConfiguration) validate() error { // nolint:gocritic
	missing := func(value *string) bool { return value == nil || *value == "" }
	switch {
	case missing(cfg.User):
		return errors.New("database configuration: user is required")
	case cfg.Password == nil:
		return errors.New("database configuration: password is required")
	case missing(cfg.Host):
		return errors.New("database configuration: host is required")
	case missing(cfg.Port):
		return errors.New("database configuration: port is required")
	case missing(cfg.Name):
		return errors.New("database configuration: name is required")
	}
	return nil
}

func (cfg DatabaseConfiguration) connTimeout() time.Duration { // nolint:gocritic
	if cfg.ConnTimeout != nil {
		return *cfg.ConnTimeout
	}
	return 5 * time.Second
}

func (cfg DatabaseConfiguration) getDSN() string { // nolint:gocritic
	query := make(url.Values)
	if cfg.MaxOpenConns != nil {
		query.Set("pool_max_conns", strconv.Itoa(*cfg.MaxOpenConns))
	}
	if cfg.MinOpenConns != nil {
		query.Set("pool_min_conns", strconv.Itoa(*cfg.MinOpenConns))
	}
	if cfg.MaxOpenConnTTL != nil {
		query.Set("pool_max_conn_lifetime", cfg.MaxOpenConnTTL.String())
	}
	if cfg.MaxIdleConnTTL != nil {
		query.Set("pool_max_conn_idle_time", cfg.MaxIdleConnTTL.String())
	}
	if cfg.MaxConnLifetimeJitterTTL != nil {
		query.Set("pool_max_conn_lifetime_jitter", cfg.MaxConnLifetimeJitterTTL.String())
	}
	if cfg.StatementCacheCapacity != nil {
		query.Set("statement_cache_capacity", strconv.Itoa(*cfg.StatementCacheCapacity))
	}
	if cfg.ConnTimeout != nil {
		// connect_timeout is whole seconds and 0 disables it
		query.Set("connect_timeout", strconv.Itoa(int(math.Ceil(cfg.ConnTimeout.Seconds()))))
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(*cfg.User, *cfg.Password),
		Host:     net.JoinHostPort(*cfg.Host, *cfg.Port),
		Path:     *cfg.Name,
		RawQuery: query.Encode(),
	}
	return dsn.String()
}
