package hivera

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
	"github.com/vietddude/hivera/internal/retry"
)

const testUA = "Mozilla/5.0 (Linux; Android 13; Pixel 7) test"

func testIdentity() domain.Identity {
	return domain.Identity{Platform: domain.PlatformAndroid, IP: "10.0.0.1", UserAgent: testUA}
}

func checkHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("User-Agent"); got != testUA {
		t.Errorf("User-Agent = %q", got)
	}
	if got := r.Header.Get("Origin"); got != DefaultOrigin {
		t.Errorf("Origin = %q", got)
	}
	if got := r.Header.Get("Referer"); got != DefaultReferer {
		t.Errorf("Referer = %q", got)
	}
	if got := r.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
	if got := r.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := r.URL.Query().Get("auth_data"); got != "token-1" {
		t.Errorf("auth_data = %q", got)
	}
}

func newSession(serverURL string) *Session {
	c := NewClient(Config{BaseURL: serverURL, Timeout: 2 * time.Second})
	return c.NewSession(domain.Account{Username: "alice", AuthData: "token-1"}, testIdentity())
}

func TestSession_Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth" {
			t.Errorf("expected path /auth, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		checkHeaders(t, r)
		_, _ = w.Write([]byte(`{"result":{"telegram_id":123456,"username":"alice_tg"}}`))
	}))
	defer server.Close()

	res, err := newSession(server.URL).Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if res.UserID != 123456 || res.Username != "alice_tg" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSession_AuthenticateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid auth data"}`))
	}))
	defer server.Close()

	_, err := newSession(server.URL).Authenticate(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T %v", err, err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", authErr.Status)
	}
	if authErr.Body != `{"error":"invalid auth data"}` {
		t.Errorf("unexpected body %q", authErr.Body)
	}
}

func TestSession_AuthenticateTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newSession(serverURL).Authenticate(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T %v", err, err)
	}
	if authErr.Status != 0 {
		t.Errorf("expected no status, got %d", authErr.Status)
	}
}

func TestSession_Contribute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/engine/contribute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		checkHeaders(t, r)

		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if p.Times != 4 {
			t.Errorf("times = %d", p.Times)
		}
		if p.QualityConnection < 90 || p.QualityConnection > 97 {
			t.Errorf("quality_connection = %d", p.QualityConnection)
		}
		if p.FromDate != 1700000000000 {
			t.Errorf("from_date = %d", p.FromDate)
		}

		_, _ = w.Write([]byte(`{"result":{"profile":{"HIVERA":1234.5,"POWER":1500,"POWER_CAPACITY":2000}}}`))
	}))
	defer server.Close()

	s := newSession(server.URL)
	s.client.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })

	profile, err := s.Contribute(context.Background())
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	want := domain.Profile{Balance: 1234.5, Power: 1500, PowerCapacity: 2000}
	if profile != want {
		t.Errorf("profile = %+v, want %+v", profile, want)
	}
}

func TestSession_ContributeClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		terminal bool
	}{
		{"insufficient power 400", http.StatusBadRequest, `{"error":"insufficient power"}`, true},
		{"insufficient power 200", http.StatusOK, `{"error":"insufficient power"}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"other domain error", http.StatusBadRequest, `{"error":"something else"}`, false},
		{"malformed body", http.StatusOK, `{not json`, false},
		{"missing profile", http.StatusOK, `{"result":{}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newSession(server.URL).Contribute(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.terminal {
				if !errors.Is(err, ErrInsufficientPower) {
					t.Errorf("expected ErrInsufficientPower, got %v", err)
				}
				if Classify(err) != retry.Terminal {
					t.Error("expected terminal classification")
				}
				return
			}

			var transient *TransientError
			if !errors.As(err, &transient) {
				t.Errorf("expected *TransientError, got %T %v", err, err)
			}
			if Classify(err) != retry.Transient {
				t.Error("expected transient classification")
			}
		})
	}
}

func TestSession_ContributeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	s := c.NewSession(domain.Account{Username: "alice", AuthData: "token-1"}, testIdentity())

	_, err := s.Contribute(context.Background())
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected *TransientError, got %T %v", err, err)
	}
}

func TestSession_RoutesThroughProxy(t *testing.T) {
	var proxied atomic.Int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A forward proxy receives the absolute target URL.
		if r.URL.Host != "api.invalid" {
			t.Errorf("proxy received host %q", r.URL.Host)
		}
		proxied.Add(1)
		switch r.URL.Path {
		case "/auth":
			_, _ = w.Write([]byte(`{"result":{"telegram_id":1,"username":"p"}}`))
		default:
			_, _ = w.Write([]byte(`{"result":{"profile":{"HIVERA":1,"POWER":2,"POWER_CAPACITY":3}}}`))
		}
	}))
	defer proxy.Close()

	proxyURL, _ := url.Parse(proxy.URL)
	port, _ := strconv.Atoi(proxyURL.Port())

	id := testIdentity()
	id.Proxy = &domain.Proxy{Host: proxyURL.Hostname(), Port: port}

	c := NewClient(Config{BaseURL: "http://api.invalid", Timeout: 2 * time.Second})
	s := c.NewSession(domain.Account{Username: "alice", AuthData: "token-1"}, id)
	defer s.Close()

	if _, err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate through proxy failed: %v", err)
	}
	if _, err := s.Contribute(context.Background()); err != nil {
		t.Fatalf("Contribute through proxy failed: %v", err)
	}
	if proxied.Load() != 2 {
		t.Errorf("expected both requests proxied, got %d", proxied.Load())
	}
}

func TestSession_Observer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"telegram_id":1,"username":"a"}}`))
	}))
	defer server.Close()

	s := newSession(server.URL)
	var endpoint string
	var status int
	s.client.SetObserver(func(e string, st int, _ time.Duration, _ error) {
		endpoint, status = e, st
	})

	if _, err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if endpoint != "/auth" || status != http.StatusOK {
		t.Errorf("observer got %s %d", endpoint, status)
	}
}

func TestNewPayload_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	seen := make(map[int]bool)

	for range 1000 {
		p := NewPayload(time.Now(), rng.IntN)
		if p.QualityConnection < 90 || p.QualityConnection > 97 {
			t.Fatalf("quality_connection out of range: %d", p.QualityConnection)
		}
		if p.Times != 4 {
			t.Fatalf("times = %d", p.Times)
		}
		seen[p.QualityConnection] = true
	}

	if len(seen) != 8 {
		t.Errorf("expected all 8 quality values, saw %d", len(seen))
	}
}

func TestNewPayload_JSONShape(t *testing.T) {
	p := NewPayload(time.UnixMilli(42), func(int) int { return 0 })
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"from_date":42,"quality_connection":90,"times":4}` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"telegram_id":1,"username":"a"}}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 10})
	s := c.NewSession(domain.Account{Username: "alice", AuthData: "token-1"}, testIdentity())

	start := time.Now()
	for range 3 {
		if _, err := s.Authenticate(context.Background()); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected limiter to space requests, took %v", elapsed)
	}
}
