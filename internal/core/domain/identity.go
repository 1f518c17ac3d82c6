package domain

// Platform is the client platform label reported for an account.
type Platform string

const (
	PlatformAndroid Platform = "Android"
	PlatformIOS     Platform = "iOS"
	PlatformMobile  Platform = "Mobile"
)

// Platforms lists every platform label an identity may carry.
var Platforms = []Platform{PlatformAndroid, PlatformIOS, PlatformMobile}

// Identity is the simulated client an account presents to the remote API.
// Platform and UserAgent are chosen independently and may disagree.
type Identity struct {
	Platform  Platform
	IP        string // proxy host, or the local IPv4 for direct egress
	UserAgent string
	Proxy     *Proxy
}

// HasProxy reports whether traffic for this identity is tunnelled.
func (i Identity) HasProxy() bool {
	return i.Proxy != nil
}
