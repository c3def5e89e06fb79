package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the bearer token payload accepted by the API. Subject names the club operator.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
