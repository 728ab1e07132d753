package devenv

import (
	"github.com/pkg/errors"
)

// Key names an environment variable devenv knows how to produce.
// The set is closed; anything else is rejected by Validate.
type Key string

const (
	KeyHostname         Key = "HOSTNAME"
	KeyPort             Key = "PORT"
	KeyAuthURL          Key = "AUTH_URL"
	KeyPublicAPIBaseURL Key = "EXPO_PUBLIC_API_BASE_URL"
	KeyAuthSecret       Key = "AUTH_SECRET"
	KeyDatabaseURL      Key = "DATABASE_URL"
	KeyRedisURL         Key = "REDIS_URL"
	KeyMongoDBURI       Key = "MONGODB_URI"
	KeyMemcachedServers Key = "MEMCACHED_SERVERS"
)

var knownKeys = []Key{
	KeyHostname,
	KeyPort,
	KeyAuthURL,
	KeyPublicAPIBaseURL,
	KeyAuthSecret,
	KeyDatabaseURL,
	KeyRedisURL,
	KeyMongoDBURI,
	KeyMemcachedServers,
}

// Keys returns every known key in declaration order.
func Keys() []Key {
	return append([]Key(nil), knownKeys...)
}

// Validate fails for keys outside the known set.
func (k Key) Validate() error {
	for _, known := range knownKeys {
		if k == known {
			return nil
		}
	}
	return errors.Errorf("unknown environment key %q", string(k))
}

// String returns the variable name.
func (k Key) String() string {
	return string(k)
}

// ParseKey converts a variable name into a Key.
func ParseKey(name string) (Key, error) {
	key := Key(name)
	if err := key.Validate(); err != nil {
		return "", err
	}
	return key, nil
}
