// Package identity builds the simulated client identity each account
// presents to the remote API.
package identity

import (
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

// DefaultIP is reported when no proxy is set and no local IPv4 address exists.
const DefaultIP = "0.0.0.0"

// AddrLookup returns the local IPv4 address used for direct egress.
type AddrLookup func() string

// Provider resolves proxy strings into identities.
type Provider struct {
	mu     sync.Mutex
	rng    *rand.Rand
	lookup AddrLookup
	agents []string
}

// Option configures a Provider.
type Option func(*Provider)

// WithRand sets the random source used for platform and user agent selection.
func WithRand(rng *rand.Rand) Option {
	return func(p *Provider) { p.rng = rng }
}

// WithAddrLookup overrides local address discovery.
func WithAddrLookup(lookup AddrLookup) Option {
	return func(p *Provider) { p.lookup = lookup }
}

// WithUserAgents replaces the user agent pool.
func WithUserAgents(agents []string) Option {
	return func(p *Provider) {
		if len(agents) > 0 {
			p.agents = agents
		}
	}
}

// NewProvider creates a Provider seeded from the clock unless WithRand is given.
func NewProvider(opts ...Option) *Provider {
	seed := uint64(time.Now().UnixNano())
	p := &Provider{
		rng:    rand.New(rand.NewPCG(seed, seed>>1)),
		lookup: LocalIPv4,
		agents: MobileUserAgents,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve builds an identity for the given proxy string. It never fails:
// an unusable proxy string means direct egress from the local address.
func (p *Provider) Resolve(proxy string) domain.Identity {
	p.mu.Lock()
	platform := domain.Platforms[p.rng.IntN(len(domain.Platforms))]
	agent := p.agents[p.rng.IntN(len(p.agents))]
	p.mu.Unlock()

	id := domain.Identity{
		Platform:  platform,
		UserAgent: agent,
	}

	if parsed, ok := domain.ParseProxy(proxy); ok {
		id.IP = parsed.Host
		id.Proxy = &parsed
		return id
	}

	id.IP = p.lookup()
	if id.IP == "" {
		id.IP = DefaultIP
	}
	return id
}

// LocalIPv4 returns the first non-loopback IPv4 address of the host, or DefaultIP.
func LocalIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return DefaultIP
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != "" {
			return ip
		}
	}
	return DefaultIP
}

func firstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
