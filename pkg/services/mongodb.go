package services

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoDBPort = 27017

// MongoDBConfig describes the local MongoDB behind MONGODB_URI.
type MongoDBConfig struct {
	Host       string `yaml:"host" toml:"host"`
	Port       int    `yaml:"port" toml:"port"`
	Database   string `yaml:"database" toml:"database"`
	Username   string `yaml:"username,omitempty" toml:"username"`
	Password   string `yaml:"password,omitempty" toml:"password"`
	AuthSource string `yaml:"auth_source,omitempty" toml:"auth_source"` // defaults to "admin" when credentials are set
}

// Validate checks the MongoDB settings
func (m MongoDBConfig) Validate() error {
	if m.Database == "" {
		return errors.New("MongoDB database name is required")
	}
	if m.Port < 0 || m.Port > 65535 {
		return errors.Errorf("MongoDB port %d is out of range", m.Port)
	}
	if (m.Username == "") != (m.Password == "") {
		return errors.New("MongoDB username and password must be set together")
	}
	return nil
}

// Name returns the service kind
func (m MongoDBConfig) Name() string {
	return "mongodb"
}

// URL returns mongodb://[user:password@]host:port/database[?authSource=...]
func (m MongoDBConfig) URL() string {
	port := m.Port
	if port == 0 {
		port = defaultMongoDBPort
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   hostPort(m.Host, port),
		Path:   "/" + m.Database,
	}
	if m.Username != "" {
		u.User = url.UserPassword(m.Username, m.Password)
		authSource := m.AuthSource
		if authSource == "" {
			authSource = "admin"
		}
		u.RawQuery = url.Values{"authSource": {authSource}}.Encode()
	}
	return u.String()
}

// Ping connects and pings the primary
func (m MongoDBConfig) Ping(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.URL()))
	if err != nil {
		return errors.Wrap(err, "failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "failed to ping MongoDB")
	}
	return nil
}
