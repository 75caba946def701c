package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"syscall"
	"time"
)

// ErrPrivateAddress is returned when a fetch would connect to a loopback, private or link-local address
var ErrPrivateAddress = errors.New("destination address is not publicly routable")

// carrier-grade NAT range, not covered by netip.Addr.IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// rejectPrivate is a net.Dialer Control hook. It sees the resolved address of every
// connection, redirects included.
func rejectPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !isPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

// publicTransport dials public addresses only. Proxies are not used so the check
// applies to the real destination.
var publicTransport = sync.OnceValue(func() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   rejectPrivate,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
})

// CheckPublicHost resolves the host of rawURL and fails when any of its addresses is not public
func CheckPublicHost(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return &Error{URL: rawURL, Op: "invalid URL", Err: err}
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", parsed.Hostname())
	if err != nil {
		return &Error{URL: rawURL, Op: "resolve host", Err: err}
	}
	for _, addr := range addrs {
		if !isPublicAddr(addr) {
			return &Error{URL: rawURL, Op: "request", Err: fmt.Errorf("%w: %s", ErrPrivateAddress, addr)}
		}
	}
	return nil
}
