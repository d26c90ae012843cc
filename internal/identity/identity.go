package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// User is what the booking workflow needs to know about the caller. Token is
// forwarded to the inventory service on the caller's behalf.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Token       string `json:"-"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens issued by the identity provider.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates an HS256 token.
func (v *Verifier) Verify(token string) (*User, error) {
	const op = "identity.Verifier.Verify"

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !parsed.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	return &User{ID: id, DisplayName: name, Token: token}, nil
}

// CurrentUser resolves an Authorization header value. It reports false for
// a missing, malformed or rejected token.
func (v *Verifier) CurrentUser(authorization string) (*User, bool) {
	token, ok := BearerToken(authorization)
	if !ok {
		return nil, false
	}

	u, err := v.Verify(token)
	if err != nil {
		return nil, false
	}

	return u, true
}

func BearerToken(authorization string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
