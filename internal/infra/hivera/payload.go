package hivera

import (
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

const (
	minQuality = 90
	maxQuality = 97

	// contributionTimes is the fixed batch size sent with every contribution.
	contributionTimes = 4
)

// Payload is the contribution request body.
type Payload struct {
	FromDate          int64 `json:"from_date"`
	QualityConnection int   `json:"quality_connection"`
	Times             int   `json:"times"`
}

// NewPayload builds a payload stamped at now with a quality drawn by intN,
// which must return a value in [0, n).
func NewPayload(now time.Time, intN func(n int) int) Payload {
	return Payload{
		FromDate:          now.UnixMilli(),
		QualityConnection: minQuality + intN(maxQuality-minQuality+1),
		Times:             contributionTimes,
	}
}

type authResponse struct {
	Result *domain.AuthResult `json:"result"`
}

type contributeResponse struct {
	Result *struct {
		Profile *domain.Profile `json:"profile"`
	} `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}
