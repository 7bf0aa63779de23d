package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("could not validate credentials or token has expired")

// Claims is the token payload minted by the identity collaborator. Only
// verification happens in this process; issuance lives elsewhere.
type Claims struct {
	TokenType string `json:"token_type"`
	UserID    int64  `json:"uid"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to requests.
type Identity struct {
	UserID  int64
	Subject string
}

// Verifier validates HS256 access tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// VerifyAccessToken parses and validates a bearer token, rejecting refresh
// tokens and anything not signed with the shared HMAC secret.
func (v *Verifier) VerifyAccessToken(token string) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:  claims.UserID,
		Subject: claims.Subject,
	}, nil
}
