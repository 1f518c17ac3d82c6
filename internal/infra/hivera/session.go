package hivera

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

const (
	authPath       = "/auth"
	contributePath = "/v2/engine/contribute"
)

// Session wraps one account's interaction with the API for a cycle.
type Session struct {
	client   *Client
	account  domain.Account
	identity domain.Identity
	http     *http.Client
}

// Account returns the account this session acts for.
func (s *Session) Account() domain.Account {
	return s.account
}

// Identity returns the identity this session presents.
func (s *Session) Identity() domain.Identity {
	return s.identity
}

// Authenticate logs the account in and returns the server-assigned identity.
// Every failure is reported as *AuthError.
func (s *Session) Authenticate(ctx context.Context) (domain.AuthResult, error) {
	status, body, err := s.do(ctx, http.MethodGet, authPath, nil)
	if err != nil {
		return domain.AuthResult{}, &AuthError{Status: status, Body: string(body), Err: err}
	}
	if status < 200 || status >= 300 {
		return domain.AuthResult{}, &AuthError{
			Status: status,
			Body:   string(body),
			Err:    fmt.Errorf("unexpected status %d", status),
		}
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AuthResult{}, &AuthError{Status: status, Body: string(body), Err: fmt.Errorf("parse response: %w", err)}
	}
	if resp.Result == nil {
		return domain.AuthResult{}, &AuthError{Status: status, Body: string(body), Err: errors.New("missing result")}
	}

	return *resp.Result, nil
}

// Contribute sends one contribution and returns the updated profile.
// The insufficient power signal is returned as ErrInsufficientPower; every
// other failure is a *TransientError.
func (s *Session) Contribute(ctx context.Context) (domain.Profile, error) {
	payload := NewPayload(s.client.now(), s.client.intN)
	return s.ContributeWith(ctx, payload)
}

// ContributeWith sends the given payload.
func (s *Session) ContributeWith(ctx context.Context, payload Payload) (domain.Profile, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Profile{}, &TransientError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	status, body, err := s.do(ctx, http.MethodPost, contributePath, data)
	if isInsufficientPower(body) {
		return domain.Profile{}, fmt.Errorf("account %s: %w", s.account.Username, ErrInsufficientPower)
	}
	if err != nil {
		return domain.Profile{}, &TransientError{Status: status, Body: string(body), Err: err}
	}
	if status < 200 || status >= 300 {
		return domain.Profile{}, &TransientError{Status: status, Body: string(body)}
	}

	var resp contributeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Profile{}, &TransientError{Status: status, Body: string(body), Err: fmt.Errorf("parse response: %w", err)}
	}
	if resp.Result == nil || resp.Result.Profile == nil {
		return domain.Profile{}, &TransientError{Status: status, Body: string(body), Err: errors.New("missing profile")}
	}

	return *resp.Result.Profile, nil
}

// Close releases idle connections held by the session transport.
func (s *Session) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// do performs a request and returns the status and full body. A non-nil error
// means the request did not complete; status and body may still be set.
func (s *Session) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	start := time.Now()
	status, body, err := s.roundTrip(ctx, method, path, payload)
	if s.client.observe != nil {
		s.client.observe(path, status, time.Since(start), err)
	}
	return status, body, err
}

func (s *Session) roundTrip(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	if s.client.limiter != nil {
		if err := s.client.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint, err := url.Parse(strings.TrimRight(s.client.cfg.BaseURL, "/") + path)
	if err != nil {
		return 0, nil, fmt.Errorf("build url: %w", err)
	}
	q := endpoint.Query()
	q.Set("auth_data", s.account.AuthData)
	endpoint.RawQuery = q.Encode()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.identity.UserAgent)
	req.Header.Set("Origin", s.client.cfg.Origin)
	req.Header.Set("Referer", s.client.cfg.Referer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, body, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isInsufficientPower(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Error == insufficientPowerSignal
}
