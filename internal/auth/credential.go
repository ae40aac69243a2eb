// Package auth checks push subjects before a connection is attempted.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// ValidateSubject refuses subjects with a missing office or credential, and
// credentials that are JWTs whose exp has already passed. Opaque credentials
// are accepted as-is; the signature is the server's business.
func ValidateSubject(subject domain.Subject, now time.Time) error {
	if err := subject.Validate(); err != nil {
		return err
	}

	exp, ok := expiry(subject.Credential)
	if ok && !exp.After(now) {
		return &domain.SubjectError{Reason: "credential expired"}
	}
	return nil
}

// expiry returns the exp claim of a JWT credential, if it has one.
func expiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
