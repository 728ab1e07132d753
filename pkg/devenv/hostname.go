package devenv

import (
	"context"
	"net"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultHostname is used when no external IPv4 address exists.
const DefaultHostname = "localhost"

// InterfaceAddress is an IPv4 address bound to a local interface. Internal
// marks loopback interfaces.
type InterfaceAddress struct {
	Address  string
	Internal bool
}

// AddressSource lists local IPv4 interface addresses.
type AddressSource func() ([]InterfaceAddress, error)

// SystemAddresses enumerates the IPv4 addresses of the host's interfaces.
func SystemAddresses() ([]InterfaceAddress, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list network interfaces")
	}

	var out []InterfaceAddress
	for _, iface := range interfaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list addresses of %s", iface.Name)
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil {
				continue
			}
			out = append(out, InterfaceAddress{
				Address:  ip.String(),
				Internal: iface.Flags&net.FlagLoopback != 0,
			})
		}
	}
	return out, nil
}

// IPv4Priority ranks an address for use as the dev hostname; lower wins.
// Home LAN addresses are preferred over anything else, loopback comes last.
func IPv4Priority(ipv4 string) int {
	switch {
	case strings.HasPrefix(ipv4, "127."):
		return 1000
	case strings.HasPrefix(ipv4, "192.168.1."):
		return -100
	case strings.HasPrefix(ipv4, "192.168."):
		return -1
	default:
		return 0
	}
}

// PickHostname returns the best non-internal address, or initial when
// there is none. Equal priorities keep enumeration order.
func PickHostname(addresses []InterfaceAddress, initial string) string {
	candidates := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !addr.Internal {
			candidates = append(candidates, addr.Address)
		}
	}
	if len(candidates) == 0 {
		return initial
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return IPv4Priority(candidates[i]) < IPv4Priority(candidates[j])
	})
	return candidates[0]
}

// HostnameFallback picks the LAN address other devices (phones running the
// mobile app, for instance) can reach this machine on.
func HostnameFallback(source AddressSource, initial string) Fallback {
	if source == nil {
		source = SystemAddresses
	}
	if initial == "" {
		initial = DefaultHostname
	}
	return func(context.Context, *ResolvedEnv) (string, error) {
		addresses, err := source()
		if err != nil {
			return "", err
		}
		return PickHostname(addresses, initial), nil
	}
}
