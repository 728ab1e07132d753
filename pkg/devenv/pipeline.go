package devenv

import (
	"context"
	"time"

	"github.com/animalet/devenv/pkg/ports"
	"github.com/animalet/devenv/pkg/services"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultProbeTimeout bounds each service liveness check.
const DefaultProbeTimeout = 2 * time.Second

// Options are the inputs fallbacks would otherwise read from globals.
type Options struct {
	Protocol           string
	InitialHostname    string
	InitialPort        int
	InterpolateBaseURL bool
	ProbeTimeout       time.Duration

	Addresses AddressSource
	Ports     *ports.Finder
}

// DefaultOptions returns the options used without a config file; the
// initial port is seeded from $PORT through lookup.
func DefaultOptions(lookup LookupEnv) Options {
	return Options{
		Protocol:        DefaultProtocol,
		InitialHostname: DefaultHostname,
		InitialPort:     InitialPort(lookup),
		ProbeTimeout:    DefaultProbeTimeout,
	}
}

// AuthEntries is the pipeline of the auth package: the dev server's
// hostname and port, then the URLs built from them.
func AuthEntries(opts Options) []Entry {
	baseURL := BaseURLFallback(opts.Protocol, opts.InterpolateBaseURL)
	return []Entry{
		{Key: KeyHostname, Fallback: HostnameFallback(opts.Addresses, opts.InitialHostname)},
		{Key: KeyPort, Fallback: PortFallback(opts.Ports, opts.InitialPort)},
		{Key: KeyAuthURL, Fallback: baseURL},
		{Key: KeyPublicAPIBaseURL, Fallback: baseURL},
	}
}

// ServiceFallback hands out svc's URL once the service answers a ping
// within timeout.
func ServiceFallback(svc services.Service, timeout time.Duration) Fallback {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return func(ctx context.Context, _ *ResolvedEnv) (string, error) {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := svc.Ping(probeCtx); err != nil {
			return "", errors.Wrapf(err, "%s is not reachable", svc.Name())
		}
		log.Debug().Str("service", svc.Name()).Msg("Local service answered")
		return svc.URL(), nil
	}
}
