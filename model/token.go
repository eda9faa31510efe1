// file: model/token.go

package model

import "time"

// RefreshToken holds one opaque refresh token record. A token is
// usable only while !Revoked and ExpiresAt is in the future. Rotation
// marks the old record revoked and inserts a new one in the same
// transaction.
type RefreshToken struct {
	ID        int       `json:"id"`
	Token     string    `json:"-"` // The raw token is never exposed in JSON responses.
	UserID    int       `json:"user_id"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
