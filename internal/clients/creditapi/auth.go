package creditapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether a JWT's exp claim has passed. The signature is
// not verified here; the backend remains the authority and still returns 401
// for anything it rejects. Tokens without an exp claim are treated as live.
func tokenExpired(token string) (bool, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, nil
	}
	return exp.Before(time.Now()), nil
}
