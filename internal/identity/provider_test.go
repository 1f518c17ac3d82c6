package identity

import (
	"math/rand/v2"
	"net"
	"slices"
	"testing"

	"github.com/vietddude/hivera/internal/core/domain"
)

func newTestProvider(seed uint64, ip string) *Provider {
	return NewProvider(
		WithRand(rand.New(rand.NewPCG(seed, seed))),
		WithAddrLookup(func() string { return ip }),
	)
}

func TestResolve_WithProxy(t *testing.T) {
	p := newTestProvider(1, "192.168.1.10")

	id := p.Resolve("203.0.113.5:3128")
	if !id.HasProxy() {
		t.Fatal("expected proxy to be attached")
	}
	if id.Proxy.Host != "203.0.113.5" || id.Proxy.Port != 3128 {
		t.Errorf("unexpected proxy %+v", *id.Proxy)
	}
	if id.IP != "203.0.113.5" {
		t.Errorf("expected egress address to be proxy host, got %s", id.IP)
	}
}

func TestResolve_NoProxyFallsBackToLocalAddress(t *testing.T) {
	p := newTestProvider(2, "192.168.1.10")

	for _, in := range []string{"", "no-colon", "a:b:c", "host:notaport"} {
		id := p.Resolve(in)
		if id.HasProxy() {
			t.Errorf("Resolve(%q) attached a proxy", in)
		}
		if id.IP != "192.168.1.10" {
			t.Errorf("Resolve(%q) IP = %s, want local address", in, id.IP)
		}
	}
}

func TestResolve_EmptyLookupUsesDefault(t *testing.T) {
	p := newTestProvider(3, "")
	if id := p.Resolve(""); id.IP != DefaultIP {
		t.Errorf("expected %s, got %s", DefaultIP, id.IP)
	}
}

func TestResolve_DrawsFromPools(t *testing.T) {
	p := newTestProvider(4, "10.0.0.1")

	platforms := make(map[domain.Platform]bool)
	for range 200 {
		id := p.Resolve("")
		if !slices.Contains(MobileUserAgents, id.UserAgent) {
			t.Fatalf("user agent %q not from pool", id.UserAgent)
		}
		if !slices.Contains(domain.Platforms, id.Platform) {
			t.Fatalf("unknown platform %q", id.Platform)
		}
		platforms[id.Platform] = true
	}

	if len(platforms) != len(domain.Platforms) {
		t.Errorf("expected all platforms to be drawn, got %v", platforms)
	}
}

func TestResolve_SeededIsDeterministic(t *testing.T) {
	a := newTestProvider(42, "10.0.0.1")
	b := newTestProvider(42, "10.0.0.1")

	for range 10 {
		if a.Resolve("") != b.Resolve("") {
			t.Fatal("same seed produced different identities")
		}
	}
}

func TestFirstIPv4(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("10.20.30.40"), Mask: net.CIDRMask(24, 32)},
	}
	if got := firstIPv4(addrs); got != "10.20.30.40" {
		t.Errorf("expected 10.20.30.40, got %q", got)
	}

	if got := firstIPv4(addrs[:2]); got != "" {
		t.Errorf("expected no address, got %q", got)
	}
}
