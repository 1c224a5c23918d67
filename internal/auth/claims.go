package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for the operator API.
// The operator identity is carried in RegisteredClaims.Subject.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}
