// Package ports finds free TCP ports for local development servers.
package ports

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPort is the seed used when nothing better is known.
	DefaultPort = 3000
	// MaxPort is the highest valid TCP port.
	MaxPort = 65535
)

// ErrNoFreePort is returned when every port from the seed up to MaxPort is taken.
var ErrNoFreePort = errors.New("no free TCP port available")

// SanitisePort parses value as a TCP port. The second return is false for
// empty, non-numeric and out-of-range values.
func SanitisePort(value string) (int, bool) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > MaxPort {
		return 0, false
	}
	return port, true
}

// Prober reports whether a port is free to bind right now.
type Prober func(ctx context.Context, port int) bool

// IsPortFree binds a TCP listener on all interfaces and releases it. The
// result is only true at the time of the check.
func IsPortFree(ctx context.Context, port int) bool {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// Finder scans for unused ports.
type Finder struct {
	probe Prober
}

// NewFinder creates a Finder using probe, or IsPortFree when probe is nil.
func NewFinder(probe Prober) *Finder {
	if probe == nil {
		probe = IsPortFree
	}
	return &Finder{probe: probe}
}

// GetUnusedPort returns the first free port at or above seed. A seed outside
// 1..MaxPort falls back to DefaultPort.
func (f *Finder) GetUnusedPort(ctx context.Context, seed int) (int, error) {
	if seed < 1 || seed > MaxPort {
		seed = DefaultPort
	}

	for port := seed; port <= MaxPort; port++ {
		if err := ctx.Err(); err != nil {
			return 0, errors.Wrap(err, "port scan interrupted")
		}
		if f.probe(ctx, port) {
			if port != seed {
				log.Debug().Int("seed", seed).Int("port", port).Msg("Preferred port is busy, using next free port")
			}
			return port, nil
		}
	}
	return 0, errors.Wrapf(ErrNoFreePort, "scanned %d-%d", seed, MaxPort)
}

// GetUnusedPort is Finder.GetUnusedPort with the real network prober.
func GetUnusedPort(ctx context.Context, seed int) (int, error) {
	return NewFinder(nil).GetUnusedPort(ctx, seed)
}
