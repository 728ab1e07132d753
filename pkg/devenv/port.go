package devenv

import (
	"context"
	"strconv"

	"github.com/animalet/devenv/pkg/ports"
)

// InitialPort returns the port scanning starts from: $PORT when it holds a
// valid port, else ports.DefaultPort.
func InitialPort(lookup LookupEnv) int {
	if lookup != nil {
		if value, ok := lookup(KeyPort.String()); ok {
			if port, valid := ports.SanitisePort(value); valid {
				return port
			}
		}
	}
	return ports.DefaultPort
}

// PortFallback returns the first free TCP port at or above seed.
func PortFallback(finder *ports.Finder, seed int) Fallback {
	if finder == nil {
		finder = ports.NewFinder(nil)
	}
	return func(ctx context.Context, _ *ResolvedEnv) (string, error) {
		port, err := finder.GetUnusedPort(ctx, seed)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(port), nil
	}
}
