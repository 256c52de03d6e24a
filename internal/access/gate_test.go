package access

import (
	"testing"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

func TestDecidePriorityOrder(t *testing.T) {
	clientID := uuid.New()
	sessWith := func(active uuid.UUID) *models.Session {
		return &models.Session{UserID: uuid.New(), ActiveClient: active}
	}

	tests := []struct {
		name       string
		sess       *models.Session
		profile    *models.User
		pendingRef bool
		want       Screen
	}{
		{
			name: "no session",
			want: ScreenAnonymous,
		},
		{
			name:       "no session with invite link",
			pendingRef: true,
			want:       ScreenRegistration,
		},
		{
			name:    "timed-out profile fetch reads as anonymous",
			sess:    sessWith(clientID),
			profile: nil,
			want:    ScreenAnonymous,
		},
		{
			name:       "pending invite overrides main app for onboarded manager",
			sess:       sessWith(clientID),
			profile:    &models.User{AccessLevel: models.LevelManager, IsOnboarded: true},
			pendingRef: true,
			want:       ScreenRegistration,
		},
		{
			name:       "pending invite overrides onboarding",
			sess:       sessWith(uuid.Nil),
			profile:    &models.User{AccessLevel: models.LevelClient, IsOnboarded: false},
			pendingRef: true,
			want:       ScreenRegistration,
		},
		{
			name:    "client not onboarded",
			sess:    sessWith(clientID),
			profile: &models.User{AccessLevel: models.LevelClient, ClientID: clientID, IsOnboarded: false},
			want:    ScreenOnboarding,
		},
		{
			name:    "manager without selection",
			sess:    sessWith(uuid.Nil),
			profile: &models.User{AccessLevel: models.LevelManager, IsOnboarded: true},
			want:    ScreenClientSelect,
		},
		{
			name:    "manager with selection",
			sess:    sessWith(clientID),
			profile: &models.User{AccessLevel: models.LevelManager, IsOnboarded: true},
			want:    ScreenMain,
		},
		{
			name:    "onboarded client",
			sess:    sessWith(clientID),
			profile: &models.User{AccessLevel: models.LevelClient, ClientID: clientID, IsOnboarded: true},
			want:    ScreenMain,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.sess, tc.profile, tc.pendingRef); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
