// Package hivera implements the remote rewards API used by the bot.
//
// This package contains:
//   - Client: shared settings, request throttling and per-account transports
//   - Session: one account's authenticate and contribute calls
//   - Errors: AuthError, TransientError and the ErrInsufficientPower signal
package hivera

import (
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/hivera/internal/core/domain"
)

const (
	DefaultBaseURL = "https://api.hivera.org"
	DefaultOrigin  = "https://app.hivera.org"
	DefaultReferer = "https://app.hivera.org/"
	DefaultTimeout = 25 * time.Second
)

// Config holds remote API settings.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	Origin            string        `yaml:"origin"`
	Referer           string        `yaml:"referer"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
}

// RequestObserver is notified after every API request.
type RequestObserver func(endpoint string, status int, latency time.Duration, err error)

// Client creates sessions that share settings and a request limiter.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	observe RequestObserver
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient creates a new API client, filling defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg: cfg,
		now: time.Now,
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// SetObserver registers a callback invoked after every request.
func (c *Client) SetObserver(fn RequestObserver) {
	c.observe = fn
}

// SetRand replaces the random source used for connection quality values.
func (c *Client) SetRand(rng *rand.Rand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = rng
}

// SetClock replaces the clock used to stamp contribution payloads.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// NewSession creates a session for one account, tunnelling through the
// identity's proxy when it has one.
func (c *Client) NewSession(account domain.Account, id domain.Identity) *Session {
	return &Session{
		client:   c,
		account:  account,
		identity: id,
		http: &http.Client{
			Timeout:   c.cfg.Timeout,
			Transport: newTransport(id, c.cfg.Timeout),
		},
	}
}

func (c *Client) intN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

func newTransport(id domain.Identity, timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout / 2,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if id.Proxy != nil {
		// Parsing cannot fail for a validated host:port.
		if proxyURL, err := url.Parse(id.Proxy.URL()); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return transport
}
