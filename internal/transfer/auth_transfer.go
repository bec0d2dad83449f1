package transfer

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims are carried by bearer tokens for the control API.
type OperatorClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
