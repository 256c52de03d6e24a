package board

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

type fakeProjects struct {
	mu         sync.Mutex
	projects   map[uuid.UUID]models.Project
	incomplete map[uuid.UUID]int
	changeErr  error
	block      chan struct{} // when set, ChangeProjectStatus waits on it
	changes    int
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{
		projects:   map[uuid.UUID]models.Project{},
		incomplete: map[uuid.UUID]int{},
	}
}

func (f *fakeProjects) GetProject(_ context.Context, id uuid.UUID) (models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return models.Project{}, models.ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeProjects) CountIncompleteGoals(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incomplete[id], nil
}

func (f *fakeProjects) ChangeProjectStatus(_ context.Context, _, id uuid.UUID, status models.ProjectStatus) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes++
	if f.changeErr != nil {
		return f.changeErr
	}
	p := f.projects[id]
	p.Status = status
	f.projects[id] = p
	return nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []models.Activity
}

func (f *fakeActivity) AppendActivity(_ context.Context, a models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, a)
	return nil
}

func (f *fakeActivity) all() []models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Activity(nil), f.entries...)
}

func seedProject(store *fakeProjects, status models.ProjectStatus, incompleteGoals int) uuid.UUID {
	id := uuid.New()
	store.projects[id] = models.Project{ID: id, Status: status}
	store.incomplete[id] = incompleteGoals
	return id
}

func TestCompletedGuardBlocksTransition(t *testing.T) {
	store := newFakeProjects()
	id := seedProject(store, models.StatusInProgress, 1)
	b := New(store, &fakeActivity{})

	err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, models.StatusCompleted)
	if !errors.Is(err, models.ErrGoalsIncomplete) {
		t.Fatalf("expected ErrGoalsIncomplete, got %v", err)
	}
	if _, ok := b.Overlay(id); ok {
		t.Fatal("guard failure must not set an overlay")
	}
	b.Wait()
	if store.changes != 0 {
		t.Fatal("guard failure must not dispatch a persistence call")
	}
	if p, _ := store.GetProject(context.Background(), id); p.Status != models.StatusInProgress {
		t.Fatalf("status must be unchanged, got %q", p.Status)
	}
}

func TestCompletedAllowedWhenGoalsDone(t *testing.T) {
	store := newFakeProjects()
	id := seedProject(store, models.StatusRevision, 0)
	b := New(store, &fakeActivity{})

	if err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, models.StatusCompleted); err != nil {
		t.Fatalf("expected transition to be allowed: %v", err)
	}
	b.Wait()
	if p, _ := store.GetProject(context.Background(), id); p.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", p.Status)
	}
}

func TestOverlayPrecedesAuthoritativeState(t *testing.T) {
	store := newFakeProjects()
	store.block = make(chan struct{})
	id := seedProject(store, models.StatusInProgress, 1)
	b := New(store, &fakeActivity{})

	if err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, models.StatusRevision); err != nil {
		t.Fatalf("request: %v", err)
	}

	// The background write has not settled; reads must already see revision.
	got, err := b.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got != models.StatusRevision {
		t.Fatalf("expected overlay status revision, got %q", got)
	}

	close(store.block)
	b.Wait()

	if _, ok := b.Overlay(id); ok {
		t.Fatal("overlay must clear once the write settles")
	}
	got, _ = b.Status(context.Background(), id)
	if got != models.StatusRevision {
		t.Fatalf("authoritative status should now be revision, got %q", got)
	}
}

func TestOverlayFailsafeExpiry(t *testing.T) {
	store := newFakeProjects()
	store.block = make(chan struct{})
	id := seedProject(store, models.StatusInProgress, 0)
	b := NewWithTTL(store, &fakeActivity{}, 30*time.Millisecond)

	if err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, models.StatusRevision); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, ok := b.Overlay(id); !ok {
		t.Fatal("overlay must be set immediately")
	}

	// The write is stuck; the failsafe alone must drop the overlay.
	deadline := time.After(time.Second)
	for {
		if _, ok := b.Overlay(id); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("overlay still present after the failsafe window")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(store.block)
	b.Wait()
}

func TestFailedWriteClearsOverlayAndRecordsError(t *testing.T) {
	store := newFakeProjects()
	store.changeErr = errors.New("connection reset")
	id := seedProject(store, models.StatusInProgress, 0)
	b := New(store, &fakeActivity{})

	if err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, models.StatusRevision); err != nil {
		t.Fatalf("request: %v", err)
	}
	b.Wait()

	if _, ok := b.Overlay(id); ok {
		t.Fatal("overlay must clear on settlement failure")
	}
	got, _ := b.Status(context.Background(), id)
	if got != models.StatusInProgress {
		t.Fatalf("reads must revert to authoritative status, got %q", got)
	}
	if err := b.TakeError(id); err == nil {
		t.Fatal("expected the background failure to be surfaced")
	}
	if err := b.TakeError(id); err != nil {
		t.Fatal("TakeError must pop the failure, not repeat it")
	}
}

func TestRevisionTransitionWritesActivity(t *testing.T) {
	store := newFakeProjects()
	log := &fakeActivity{}
	id := seedProject(store, models.StatusInProgress, 1) // open goals do not guard revision
	actor := uuid.New()
	b := New(store, log)

	if err := b.RequestStatusChange(context.Background(), actor, uuid.New(), id, models.StatusRevision); err != nil {
		t.Fatalf("request: %v", err)
	}
	got, _ := b.Status(context.Background(), id)
	if got != models.StatusRevision {
		t.Fatalf("expected immediate revision, got %q", got)
	}
	b.Wait()

	entries := log.all()
	if len(entries) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ProjectID != id || e.ActorID != actor || e.Kind != "status-change" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !strings.Contains(e.Detail, string(models.StatusInProgress)) || !strings.Contains(e.Detail, string(models.StatusRevision)) {
		t.Fatalf("detail should describe the transition, got %q", e.Detail)
	}
}

func TestRejectsUnknownStatus(t *testing.T) {
	store := newFakeProjects()
	id := seedProject(store, models.StatusInProgress, 0)
	b := New(store, &fakeActivity{})

	if err := b.RequestStatusChange(context.Background(), uuid.New(), uuid.New(), id, "archived"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := b.Overlay(id); ok {
		t.Fatal("rejected transition must not set an overlay")
	}
}
