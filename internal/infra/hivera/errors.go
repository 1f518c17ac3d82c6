package hivera

import (
	"errors"
	"fmt"

	"github.com/vietddude/hivera/internal/retry"
)

// ErrInsufficientPower is the server's signal that the account has no power
// left to contribute. It is terminal for the current cycle.
var ErrInsufficientPower = errors.New("insufficient power")

// insufficientPowerSignal is the error value the API returns in the body.
const insufficientPowerSignal = "insufficient power"

// AuthError reports a failed authentication request.
type AuthError struct {
	Status int    // 0 when no response was received
	Body   string // raw response body, if any
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("authenticate: %v", e.Err)
	}
	return fmt.Sprintf("authenticate: http %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransientError reports a contribution failure worth retrying: transport
// errors, timeouts, non-2xx responses and malformed bodies.
type TransientError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("contribute: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("contribute: http %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("contribute: http %d: %s", e.Status, e.Body)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Classify maps contribution errors to retry classes.
func Classify(err error) retry.Class {
	if errors.Is(err, ErrInsufficientPower) {
		return retry.Terminal
	}
	return retry.Transient
}
