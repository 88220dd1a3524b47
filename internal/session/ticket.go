package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ticketClaims is the payload of the signed session cookie. The cookie never
// carries the backend token itself, only the id of the store entry.
type ticketClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueTicket signs a cookie value binding the browser to a store entry.
func IssueTicket(sessionID, issuer, key string, ttl time.Duration) (string, error) {
	claims := ticketClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// ParseTicket validates a cookie value and returns the session id.
func ParseTicket(tokenStr, key, issuer string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &ticketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*ticketClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid ticket")
	}
	if issuer != "" && claims.Issuer != issuer {
		return "", errors.New("issuer mismatch")
	}
	if claims.SessionID == "" {
		return "", errors.New("ticket carries no session id")
	}
	return claims.SessionID, nil
}
