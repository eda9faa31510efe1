package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the exact claim set carried by access tokens: subject
// (username), user id, role, issued-at and expiry.
type AppClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
