package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultUsername is used for accounts loaded without a username.
const DefaultUsername = "Unknown"

// Account is one credential set the bot contributes for.
type Account struct {
	Username string `json:"username" db:"username"`
	AuthData string `json:"authData" db:"auth_data"`
	Proxy    string `json:"proxy"    db:"proxy"`
}

// Normalize fills defaults for fields the account source left empty.
func (a Account) Normalize() Account {
	if a.Username == "" {
		a.Username = DefaultUsername
	}
	return a
}

// Key identifies the account independently of its display name, which may
// repeat across accounts.
func (a Account) Key() string {
	sum := sha256.Sum256([]byte(a.AuthData))
	return a.Username + ":" + hex.EncodeToString(sum[:6])
}

// AuthResult holds the server-assigned identity returned by a successful login.
type AuthResult struct {
	UserID   int64  `json:"telegram_id"`
	Username string `json:"username"`
}
