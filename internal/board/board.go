// internal/board/board.go
package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

// ProjectStore is the authoritative side of the board.
type ProjectStore interface {
	GetProject(ctx context.Context, id uuid.UUID) (models.Project, error)
	CountIncompleteGoals(ctx context.Context, projectID uuid.UUID) (int, error)
	ChangeProjectStatus(ctx context.Context, clientID, projectID uuid.UUID, status models.ProjectStatus) error
}

type ActivityLog interface {
	AppendActivity(ctx context.Context, a models.Activity) error
}

// overlayTTL is the failsafe upper bound on how long an optimistic status may
// shadow the authoritative one. Settlement of the background write clears the
// overlay sooner in the normal case.
const overlayTTL = 3 * time.Second

const persistTimeout = 10 * time.Second

type entry struct {
	status models.ProjectStatus
	gen    uint64
}

// Board applies status transitions optimistically: the new status is visible
// to every read immediately, the authoritative write runs in the background,
// and the overlay is dropped when the write settles (or at the TTL, whichever
// comes first). A failed write leaves a per-project error for the caller to
// surface; reads then fall back to the authoritative status.
type Board struct {
	store ProjectStore
	log   ActivityLog
	ttl   time.Duration

	mu      sync.Mutex
	gen     uint64
	overlay map[uuid.UUID]entry
	fails   map[uuid.UUID]error
	wg      sync.WaitGroup
}

func New(store ProjectStore, log ActivityLog) *Board {
	return &Board{
		store:   store,
		log:     log,
		ttl:     overlayTTL,
		overlay: make(map[uuid.UUID]entry),
		fails:   make(map[uuid.UUID]error),
	}
}

// NewWithTTL is for tests that need a short failsafe window.
func NewWithTTL(store ProjectStore, log ActivityLog, ttl time.Duration) *Board {
	b := New(store, log)
	if ttl > 0 {
		b.ttl = ttl
	}
	return b
}

// RequestStatusChange validates the transition, applies the overlay
// synchronously and dispatches the authoritative update without waiting for
// it. Moving to completed is refused while any creative goal is open.
func (b *Board) RequestStatusChange(ctx context.Context, actorID, clientID, projectID uuid.UUID, newStatus models.ProjectStatus) error {
	if !models.ValidStatus(newStatus) {
		return fmt.Errorf("unknown status %q", newStatus)
	}
	if newStatus == models.StatusCompleted {
		open, err := b.store.CountIncompleteGoals(ctx, projectID)
		if err != nil {
			return err
		}
		if open > 0 {
			return models.ErrGoalsIncomplete
		}
	}
	prev, err := b.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.overlay[projectID] = entry{status: newStatus, gen: gen}
	delete(b.fails, projectID)
	b.mu.Unlock()

	// Failsafe: never let an overlay outlive the TTL, settled or not.
	time.AfterFunc(b.ttl, func() { b.clear(projectID, gen) })

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := b.store.ChangeProjectStatus(pctx, clientID, projectID, newStatus); err != nil {
			slog.ErrorContext(pctx, "status change persist failed",
				"project_id", projectID.String(), "status", string(newStatus), "err", err)
			b.mu.Lock()
			b.fails[projectID] = err
			b.mu.Unlock()
			b.clear(projectID, gen)
			return
		}
		if b.log != nil {
			_ = b.log.AppendActivity(pctx, models.Activity{
				ProjectID: projectID,
				ActorID:   actorID,
				Kind:      "status-change",
				Detail:    fmt.Sprintf("status changed %s → %s", prev.Status, newStatus),
			})
		}
		// Confirmed: the authoritative store now reports the new status.
		b.clear(projectID, gen)
	}()

	return nil
}

// Status reads through the overlay, falling back to the authoritative store.
func (b *Board) Status(ctx context.Context, projectID uuid.UUID) (models.ProjectStatus, error) {
	b.mu.Lock()
	e, ok := b.overlay[projectID]
	b.mu.Unlock()
	if ok {
		return e.status, nil
	}
	p, err := b.store.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// Overlay reports the pending status for a project, if any.
func (b *Board) Overlay(projectID uuid.UUID) (models.ProjectStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.overlay[projectID]
	return e.status, ok
}

// TakeError pops the recorded background failure for a project so the caller
// can surface it once.
func (b *Board) TakeError(projectID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.fails[projectID]
	delete(b.fails, projectID)
	return err
}

// Wait blocks until in-flight background writes settle. Test hook.
func (b *Board) Wait() { b.wg.Wait() }

func (b *Board) clear(projectID uuid.UUID, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.overlay[projectID]; ok && e.gen == gen {
		delete(b.overlay, projectID)
	}
}
