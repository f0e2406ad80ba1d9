package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of a bearer token issued by the external
// identity provider. Subject carries the provider's stable user id; email and
// name are used to bootstrap the internal user row on first login.
type SessionClaims struct {
	Email    string `json:"email"`
	FullName string `json:"name"`
	jwt.RegisteredClaims
}
