package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Identity is the user payload embedded in every token.
type Identity struct {
	ID string `json:"id"`
}

// Claims defines the JWT payload: {"user":{"id":...}} plus registered claims.
type Claims struct {
	User Identity `json:"user"`
	jwtlib.RegisteredClaims
}

// Generate issues a signed HS256 token for the user, expiring after ttl.
func Generate(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User: Identity{ID: userID},
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "devnet",
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// Parse validates a token and extracts its claims. Tampered signatures,
// foreign signing methods and expired tokens all fail; expiry is judged
// against the verifier's clock.
func Parse(tok string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(tok, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}
