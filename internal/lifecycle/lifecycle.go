// internal/lifecycle/lifecycle.go
package lifecycle

import (
	"github.com/cassidycr/accildatabase/internal/dates"
	"github.com/cassidycr/accildatabase/internal/models"
)

// Class is the lifecycle state of a session. A session is in exactly one
// class at any time.
type Class string

const (
	ClassRequest   Class = "Request"
	ClassConfirmed Class = "Confirmed"
	ClassCanceled  Class = "Canceled"
)

// ParseClass maps a caller-supplied filter value to a Class.
func ParseClass(s string) (Class, bool) {
	switch Class(s) {
	case ClassRequest, ClassConfirmed, ClassCanceled:
		return Class(s), true
	}
	return "", false
}

// Classify places a session in its lifecycle class. The cancel flag wins
// unconditionally; otherwise a session is Confirmed iff its confirmed date
// normalizes to a real calendar date.
func Classify(s *models.Session) Class {
	if s.Canceled {
		return ClassCanceled
	}
	if _, ok := dates.NormalizeString(s.DateConfirmed); ok {
		return ClassConfirmed
	}
	return ClassRequest
}

// Editable reports whether a session's operational fields may still change.
// Canceled is terminal: confirm and edit are rejected, only a repeated
// cancel (which reaffirms the flag) is allowed.
func Editable(s *models.Session) bool {
	return !s.Canceled
}
