package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

const defaultRedisPort = 6379

// RedisConfig describes the local Redis behind REDIS_URL.
type RedisConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username,omitempty" toml:"username"`
	Password string `yaml:"password,omitempty" toml:"password"`
	Database int    `yaml:"database,omitempty" toml:"database"`
	TLS      bool   `yaml:"tls,omitempty" toml:"tls"`
}

// Validate checks the Redis settings
func (r RedisConfig) Validate() error {
	if r.Port < 0 || r.Port > 65535 {
		return errors.Errorf("redis port %d is out of range", r.Port)
	}
	if r.Database < 0 {
		return errors.New("redis database must be non-negative")
	}
	if r.Username != "" && r.Password == "" {
		return errors.New("redis username requires a password")
	}
	return nil
}

// Name returns the service kind
func (r RedisConfig) Name() string {
	return "redis"
}

// URL returns redis://[user:password@]host:port/database, or rediss:// with TLS.
func (r RedisConfig) URL() string {
	port := r.Port
	if port == 0 {
		port = defaultRedisPort
	}
	u := url.URL{
		Scheme: "redis",
		Host:   hostPort(r.Host, port),
		Path:   "/" + strconv.Itoa(r.Database),
	}
	if r.TLS {
		u.Scheme = "rediss"
	}
	if r.Password != "" {
		u.User = url.UserPassword(r.Username, r.Password)
	}
	return u.String()
}

// Ping dials the server and sends PING
func (r RedisConfig) Ping(ctx context.Context) error {
	conn, err := redis.DialURLContext(ctx, r.URL())
	if err != nil {
		return errors.Wrap(err, "failed to connect to Redis")
	}
	defer func() { _ = conn.Close() }()

	if _, err := redis.DoContext(conn, ctx, "PING"); err != nil {
		return errors.Wrap(err, "failed to ping Redis")
	}
	return nil
}
