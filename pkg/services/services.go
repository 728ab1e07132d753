// Package services describes local development dependencies (databases,
// caches) and checks that they answer before their connection URLs are
// handed out.
package services

import (
	"context"
	"net"
	"strconv"
)

const defaultHost = "localhost"

// Service is a local dependency reachable at URL.
type Service interface {
	// Name identifies the service kind in logs and errors.
	Name() string
	// URL is the connection string written to the env file.
	URL() string
	// Ping fails when the service does not answer.
	Ping(ctx context.Context) error
}

func hostPort(host string, port int) string {
	if host == "" {
		host = defaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
