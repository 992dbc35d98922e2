package jwtauth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"cohort/internal/platform/middleware"
)

// Validator checks HMAC-signed tokens issued by the portal's identity service.
// Token issuance itself is out of scope here; this side only verifies.
type Validator struct {
	signingKey []byte
}

func New(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type portalClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken verifies signature and expiry and extracts the subject and
// role claims.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &portalClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*portalClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return &middleware.JWTClaims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
	}, nil
}

// Sign mints a token for the given subject and role. Used by tests and local
// tooling; production tokens come from the identity service.
func (v *Validator) Sign(subjectID, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, portalClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID,
		},
	})
	return token.SignedString(v.signingKey)
}
