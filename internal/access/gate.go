// internal/access/gate.go
package access

import (
	"github.com/google/uuid"

	"studiodesk/internal/models"
)

// Screen is one of the mutually exclusive top-level destinations.
type Screen string

const (
	ScreenAnonymous    Screen = "anonymous"
	ScreenRegistration Screen = "registration"
	ScreenOnboarding   Screen = "onboarding"
	ScreenClientSelect Screen = "client-select"
	ScreenMain         Screen = "main"
)

// Decide picks the destination screen. Evaluated in strict priority order on
// every auth-state change:
//
//  1. no session or no profile (timed-out fetch) → anonymous routes
//  2. pending invite reference in the URL → registration, overriding all else
//  3. CLIENT level and not onboarded → onboarding
//  4. MANAGER level with no active client selected → client selection
//  5. main application
//
// A pending reference also routes an unauthenticated visitor to registration;
// that is the anonymous variant of the same flow.
func Decide(sess *models.Session, profile *models.User, pendingRef bool) Screen {
	if sess == nil || profile == nil {
		if pendingRef {
			return ScreenRegistration
		}
		return ScreenAnonymous
	}
	if pendingRef {
		return ScreenRegistration
	}
	if profile.AccessLevel == models.LevelClient && !profile.IsOnboarded {
		return ScreenOnboarding
	}
	if profile.AccessLevel == models.LevelManager && sess.ActiveClient == uuid.Nil {
		return ScreenClientSelect
	}
	return ScreenMain
}
