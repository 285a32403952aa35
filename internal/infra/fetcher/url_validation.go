// Package fetcher retrieves the raw markup of the source listing page,
// falling back from a direct request to an ordered list of relay endpoints.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
)

// validateURL accepts only absolute http(s) URLs. With denyPrivateIPs it
// also resolves the host and rejects non-public addresses, so neither a
// relay template nor a redirect can point the fetcher at the local network.
func validateURL(ctx context.Context, rawURL string, denyPrivateIPs bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if !isPublicAddr(addr) {
			return fmt.Errorf("%w: %s", ErrPrivateIP, addr)
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if !isPublicAddr(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, host, addr)
		}
	}
	return nil
}

// isPublicAddr rejects loopback, RFC 1918 / fc00::/7, link-local and
// unspecified addresses. IPv4-mapped IPv6 addresses are judged as IPv4.
func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified())
}
