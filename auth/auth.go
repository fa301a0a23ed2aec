package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier wraps a signing secret for issuing and verifying bearer tokens.
// Identity only annotates presence; a failed verification never blocks play.
type Verifier struct{ secret []byte }

func New(secret string) *Verifier { return &Verifier{secret: []byte(secret)} }

// Verify checks a token and returns the sub (subject id) claim.
func (v *Verifier) Verify(tok string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("no sub")
	}
	return sub, nil
}

// Sign creates a token for a subject with the given TTL.
func (v *Verifier) Sign(sub string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", errors.New("empty subject")
	}
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(v.secret)
}
