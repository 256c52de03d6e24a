// internal/invite/flow.go
package invite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

// Identities is the authentication collaborator: it creates a sign-in
// identity plus its profile row, reporting models.ErrIdentityExists when the
// email is already registered.
type Identities interface {
	SignUp(ctx context.Context, email, password string, profile models.User) (models.User, error)
}

// Accounts merges invite-derived access onto an existing profile.
type Accounts interface {
	SetUserAccess(ctx context.Context, id uuid.UUID, level models.AccessLevel, clientID uuid.UUID, onboarded bool) error
	UpdateUserProfile(ctx context.Context, id uuid.UUID, name, avatarURL string) error
}

type FlowState string

const (
	StateLoading FlowState = "loading"
	StateWelcome FlowState = "welcome"
	StateForm    FlowState = "form"
	StateInvalid FlowState = "invalid"
	StateSuccess FlowState = "success"
)

// Form is the data collected before completing registration. Password fields
// are ignored for linked registrations.
type Form struct {
	Name            string
	Contact         string
	Password        string
	ConfirmPassword string
}

// Flow drives registration through
//
//	loading → {welcome, invalid}
//	welcome → form
//	form    → {success, form (validation errors)}
//
// It comes in two explicit variants rather than one conditional path: an
// anonymous registration creates a fresh identity and collects a password; a
// linked registration attaches invite scope to the session's existing user
// and never touches credentials.
type Flow struct {
	svc      *Service
	ids      Identities
	accounts Accounts
	ref      Ref
	existing *models.User // non-nil selects the linked variant

	state  FlowState
	view   View
	result *models.User
}

func NewFlow(svc *Service, ids Identities, accounts Accounts, ref Ref, existing *models.User) *Flow {
	return &Flow{
		svc:      svc,
		ids:      ids,
		accounts: accounts,
		ref:      ref,
		existing: existing,
		state:    StateLoading,
	}
}

func (f *Flow) State() FlowState { return f.state }
func (f *Flow) View() View       { return f.view }

// Result returns the registered or linked user after StateSuccess.
func (f *Flow) Result() *models.User { return f.result }

// Anonymous reports whether this flow collects a password.
func (f *Flow) Anonymous() bool { return f.existing == nil }

// Begin resolves the invite reference. Failure is terminal: the only path
// out of StateInvalid is a new link.
func (f *Flow) Begin(ctx context.Context) FlowState {
	if f.state != StateLoading {
		return f.state
	}
	view, err := f.svc.ResolveRef(ctx, f.ref)
	if err != nil {
		f.state = StateInvalid
		return f.state
	}
	f.view = view
	f.state = StateWelcome
	return f.state
}

// StartForm acknowledges the welcome screen and opens data collection.
func (f *Flow) StartForm() error {
	if f.state != StateWelcome {
		return fmt.Errorf("cannot open form from state %q", f.state)
	}
	f.state = StateForm
	return nil
}

// Submit attempts the form → success transition. A non-empty field-error map
// refuses the transition with no backend call made. ErrIdentityExists is
// surfaced to the caller as a log-in-first condition and is never retried.
func (f *Flow) Submit(ctx context.Context, form Form) (map[string]string, error) {
	if f.state != StateForm {
		return nil, fmt.Errorf("cannot submit from state %q", f.state)
	}

	fieldErrs := f.validate(form)
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	if f.Anonymous() {
		u, err := f.ids.SignUp(ctx, strings.TrimSpace(form.Contact), form.Password, models.User{
			Name:        strings.TrimSpace(form.Name),
			AccessLevel: f.view.Level,
			ClientID:    f.view.ClientID,
			IsOnboarded: true,
		})
		if err != nil {
			return nil, err
		}
		f.result = &u
	} else {
		if err := f.accounts.SetUserAccess(ctx, f.existing.ID, f.view.Level, f.view.ClientID, true); err != nil {
			return nil, err
		}
		if err := f.accounts.UpdateUserProfile(ctx, f.existing.ID, strings.TrimSpace(form.Name), ""); err != nil {
			return nil, err
		}
		linked := *f.existing
		linked.AccessLevel = f.view.Level
		linked.ClientID = f.view.ClientID
		linked.IsOnboarded = true
		f.result = &linked
	}

	if f.ref.Kind == KindToken {
		if err := f.svc.consume(ctx, f.ref.Token); err != nil {
			if errors.Is(err, models.ErrInviteInvalid) {
				f.state = StateInvalid
			}
			return nil, err
		}
	}

	f.state = StateSuccess
	return nil, nil
}

func (f *Flow) validate(form Form) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(form.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(form.Contact) == "" {
		errs["contact"] = "contact is required"
	}
	if f.Anonymous() {
		if form.Password == "" {
			errs["password"] = "password is required"
		} else if len(form.Password) < 8 {
			errs["password"] = "password must be at least 8 characters"
		}
		if _, ok := errs["password"]; !ok && form.Password != form.ConfirmPassword {
			errs["confirmPassword"] = "passwords do not match"
		}
	}
	return errs
}
