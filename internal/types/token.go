package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token. UserID is the stable
// identifier issued by the identity provider.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}
