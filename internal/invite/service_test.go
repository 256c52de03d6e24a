package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

type fakeStore struct {
	invites map[string]models.InviteToken // keyed by token hash
	codes   map[string]models.AccessCode  // keyed by code
	clients map[uuid.UUID]models.ClientAccount

	createInviteErr error
	markUsedCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invites: map[string]models.InviteToken{},
		codes:   map[string]models.AccessCode{},
		clients: map[uuid.UUID]models.ClientAccount{},
	}
}

func (f *fakeStore) CreateInvite(_ context.Context, inv models.InviteToken) error {
	if f.createInviteErr != nil {
		return f.createInviteErr
	}
	inv.ID = uuid.New()
	f.invites[inv.TokenHash] = inv
	return nil
}

func (f *fakeStore) GetInviteByTokenHash(_ context.Context, hash string) (models.InviteToken, string, error) {
	inv, ok := f.invites[hash]
	if !ok {
		return models.InviteToken{}, "", models.ErrInviteInvalid
	}
	return inv, f.clients[inv.ClientID].Name, nil
}

func (f *fakeStore) MarkInviteUsed(_ context.Context, hash string, at time.Time) error {
	f.markUsedCalls++
	inv, ok := f.invites[hash]
	if !ok || !inv.UsedAt.IsZero() {
		return models.ErrInviteInvalid
	}
	inv.UsedAt = at
	f.invites[hash] = inv
	return nil
}

func (f *fakeStore) GetAccessCode(_ context.Context, clientID uuid.UUID, code string) (models.AccessCode, error) {
	c, ok := f.codes[code]
	if !ok || c.ClientID != clientID {
		return models.AccessCode{}, models.ErrCodeNotFound
	}
	return c, nil
}

func (f *fakeStore) FindAccessCodeByCode(_ context.Context, code string) (models.AccessCode, error) {
	c, ok := f.codes[code]
	if !ok {
		return models.AccessCode{}, models.ErrCodeNotFound
	}
	return c, nil
}

func (f *fakeStore) FindClientByID(_ context.Context, id uuid.UUID) (models.ClientAccount, error) {
	c, ok := f.clients[id]
	if !ok {
		return models.ClientAccount{}, models.ErrClientNotFound
	}
	return c, nil
}

func newTestService(store *fakeStore, now time.Time) *Service {
	svc := NewService(store, 24*time.Hour)
	svc.clock = func() time.Time { return now }
	return svc
}

func TestIssueScopesTokenToClientAndLevel(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	clientID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	svc := newTestService(store, now)

	issued, err := svc.Issue(context.Background(), clientID, "", uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.Token == "" {
		t.Fatal("expected a plaintext token")
	}
	if issued.Invite.Level != models.LevelClient {
		t.Fatalf("expected level to default to CLIENT, got %q", issued.Invite.Level)
	}
	if got, want := issued.Invite.ExpiresAt, now.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}
	if issued.Invite.TokenHash == issued.Token {
		t.Fatal("token must be stored hashed, not in plaintext")
	}
	if _, ok := store.invites[issued.Invite.TokenHash]; !ok {
		t.Fatal("invite not persisted under its hash")
	}
}

func TestIssueRejectsUnknownClient(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	_, err := svc.Issue(context.Background(), uuid.New(), models.LevelClient, uuid.New())
	if !errors.Is(err, models.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestValidateHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	clientID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	svc := newTestService(store, now)

	issued, err := svc.Issue(context.Background(), clientID, models.LevelClient, uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	view, err := svc.Validate(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if view.ClientID != clientID {
		t.Fatalf("expected client %s, got %s", clientID, view.ClientID)
	}
	if view.ClientName != "Acme" {
		t.Fatalf("expected client name joined in, got %q", view.ClientName)
	}
}

func TestValidateCollapsesFailureModes(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	clientID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	svc := newTestService(store, now)

	expired, _ := svc.Issue(context.Background(), clientID, models.LevelClient, uuid.New())
	used, _ := svc.Issue(context.Background(), clientID, models.LevelClient, uuid.New())

	// Force expiry and consumption directly on the stored rows.
	inv := store.invites[hashToken(expired.Token)]
	inv.ExpiresAt = now.Add(-time.Minute)
	store.invites[hashToken(expired.Token)] = inv

	if err := svc.consume(context.Background(), used.Token); err != nil {
		t.Fatalf("consume: %v", err)
	}

	for name, token := range map[string]string{
		"expired": expired.Token,
		"used":    used.Token,
		"unknown": "never-issued",
	} {
		if _, err := svc.Validate(context.Background(), token); !errors.Is(err, models.ErrInviteInvalid) {
			t.Errorf("%s token: expected ErrInviteInvalid, got %v", name, err)
		}
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	clientID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	svc := newTestService(store, now)

	issued, _ := svc.Issue(context.Background(), clientID, models.LevelClient, uuid.New())
	if err := svc.consume(context.Background(), issued.Token); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := svc.consume(context.Background(), issued.Token); !errors.Is(err, models.ErrInviteInvalid) {
		t.Fatalf("second consume: expected ErrInviteInvalid, got %v", err)
	}
}

func TestResolveRefAccessCodes(t *testing.T) {
	store := newFakeStore()
	clientID := uuid.New()
	projectID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	store.codes["studio-vip"] = models.AccessCode{
		ClientID: clientID, Code: "studio-vip", Role: models.CodeRoleContributor,
	}
	store.codes["launch-film"] = models.AccessCode{
		ClientID: clientID, ProjectID: projectID, Code: "launch-film", Role: models.CodeRoleViewer,
	}
	svc := newTestService(store, time.Now())

	view, err := svc.ResolveRef(context.Background(), Ref{Kind: KindClientCode, ClientID: clientID, Code: "studio-vip"})
	if err != nil {
		t.Fatalf("client code: %v", err)
	}
	if view.ProjectID != uuid.Nil {
		t.Fatal("account-wide code must not carry a project scope")
	}
	if view.CodeRole != models.CodeRoleContributor {
		t.Fatalf("expected Contributor, got %q", view.CodeRole)
	}

	view, err = svc.ResolveRef(context.Background(), Ref{Kind: KindProjectCode, Code: "launch-film"})
	if err != nil {
		t.Fatalf("project code: %v", err)
	}
	if view.ProjectID != projectID {
		t.Fatalf("expected project scope %s, got %s", projectID, view.ProjectID)
	}

	if _, err := svc.ResolveRef(context.Background(), Ref{Kind: KindProjectCode, Code: "nope"}); !errors.Is(err, models.ErrInviteInvalid) {
		t.Fatalf("unknown code: expected ErrInviteInvalid, got %v", err)
	}
}

func TestResolveRefCodesAreMultiUse(t *testing.T) {
	store := newFakeStore()
	clientID := uuid.New()
	store.clients[clientID] = models.ClientAccount{ID: clientID, Name: "Acme"}
	store.codes["studio-vip"] = models.AccessCode{ClientID: clientID, Code: "studio-vip", Role: models.CodeRoleViewer}
	svc := newTestService(store, time.Now())

	for i := 0; i < 3; i++ {
		if _, err := svc.ResolveRef(context.Background(), Ref{Kind: KindClientCode, ClientID: clientID, Code: "studio-vip"}); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if store.markUsedCalls != 0 {
		t.Fatalf("access codes must not be consumed, got %d consume calls", store.markUsedCalls)
	}
}
