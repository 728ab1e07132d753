package services

import (
	"context"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// MemcachedConfig describes the local Memcached servers behind MEMCACHED_SERVERS.
type MemcachedConfig struct {
	// Servers is a list of host:port addresses. Defaults to localhost:11211.
	Servers []string `yaml:"servers" toml:"servers"`
}

// Validate checks the Memcached settings
func (m MemcachedConfig) Validate() error {
	for i, server := range m.Servers {
		if server == "" {
			return errors.Errorf("server address at index %d is empty", i)
		}
	}
	return nil
}

func (m MemcachedConfig) servers() []string {
	if len(m.Servers) == 0 {
		return []string{"localhost:11211"}
	}
	return m.Servers
}

// Name returns the service kind
func (m MemcachedConfig) Name() string {
	return "memcached"
}

// URL returns the comma separated server list
func (m MemcachedConfig) URL() string {
	return strings.Join(m.servers(), ",")
}

// Ping checks every server. The memcache client has no context support, so
// its timeout is derived from the context deadline.
func (m MemcachedConfig) Ping(ctx context.Context) error {
	client := memcache.New(m.servers()...)
	if deadline, ok := ctx.Deadline(); ok {
		client.Timeout = time.Until(deadline)
	}
	if err := client.Ping(); err != nil {
		return errors.Wrap(err, "failed to connect to Memcached")
	}
	return nil
}
