package models

// JWTClaims represents the claims extracted from a verified bearer token
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss"`
}
