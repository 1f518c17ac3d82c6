package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Proxy is an HTTP(S) tunnel endpoint an account's traffic is routed through.
type Proxy struct {
	Host string
	Port int
}

// ParseProxy parses a "host:port" string. Any other shape means direct egress
// and is reported with ok=false rather than an error.
func ParseProxy(s string) (Proxy, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" {
		return Proxy{}, false
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return Proxy{}, false
	}

	return Proxy{Host: parts[0], Port: port}, true
}

// Addr returns the proxy as "host:port".
func (p Proxy) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// URL returns the proxy URL used for HTTP CONNECT tunnelling.
func (p Proxy) URL() string {
	return fmt.Sprintf("http://%s", p.Addr())
}
