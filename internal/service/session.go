package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/repository"
)

// SessionState is the commit state of an EditSession.
type SessionState string

const (
	StateOpen       SessionState = "open"
	StateCommitting SessionState = "committing"
	// StateFailed follows a failed commit. The session accepts edits and
	// retries in this state; the next successful operation returns it to open.
	StateFailed SessionState = "failed"
)

// ErrCommitInFlight is returned when a session is changed or committed while
// a commit is still running.
var ErrCommitInFlight = &models.ConflictError{Reason: "commit already in progress"}

// EditSession stages edits to one profile and writes them back in a single
// save. Failed operations leave the working copy untouched.
type EditSession struct {
	store repository.ProfileStore

	mu       sync.Mutex
	baseline models.Profile
	working  models.Profile
	state    SessionState
	lastErr  string
}

// OpenSession loads the owner's profile into a new session.
func OpenSession(ctx context.Context, store repository.ProfileStore, ownerID uuid.UUID) (*EditSession, error) {
	profile, err := store.FetchByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &models.NotFoundError{What: "profile"}
	}
	return &EditSession{
		store:    store,
		baseline: profile.Clone(),
		working:  profile.Clone(),
		state:    StateOpen,
	}, nil
}

// SessionSnapshot is the serializable form of an EditSession kept in the
// draft store between requests.
type SessionSnapshot struct {
	Baseline  models.Profile `json:"baseline"`
	Working   models.Profile `json:"working"`
	State     SessionState   `json:"state"`
	LastError string         `json:"last_error,omitempty"`
}

// RestoreSession rebuilds a session from a snapshot. A snapshot taken
// mid-commit is restored as failed, since that commit's outcome is unknown
// to this session.
func RestoreSession(store repository.ProfileStore, snap SessionSnapshot) *EditSession {
	state := snap.State
	switch state {
	case StateOpen, StateFailed:
	default:
		state = StateFailed
	}
	return &EditSession{
		store:    store,
		baseline: snap.Baseline.Clone(),
		working:  snap.Working.Clone(),
		state:    state,
		lastErr:  snap.LastError,
	}
}

func (s *EditSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Baseline:  s.baseline.Clone(),
		Working:   s.working.Clone(),
		State:     s.state,
		LastError: s.lastErr,
	}
}

// Stage merges patch into the working copy.
func (s *EditSession) Stage(patch models.ProfilePatch) error {
	return s.mutate(func(p models.Profile) (models.Profile, error) {
		next := p.WithUpdatedFields(patch)
		if err := next.Validate(); err != nil {
			return p, err
		}
		return next, nil
	})
}

// StageLinkAdd appends a link to the working copy.
func (s *EditSession) StageLinkAdd(title, url string) error {
	return s.mutate(func(p models.Profile) (models.Profile, error) {
		links := p.Links.Clone()
		if err := links.Append(title, url); err != nil {
			return p, err
		}
		p.Links = links
		return p, nil
	})
}

// StageLinkRemove removes the link at index from the working copy.
func (s *EditSession) StageLinkRemove(index int) error {
	return s.mutate(func(p models.Profile) (models.Profile, error) {
		links := p.Links.Clone()
		if err := links.RemoveAt(index); err != nil {
			return p, err
		}
		p.Links = links
		return p, nil
	})
}

func (s *EditSession) mutate(fn func(models.Profile) (models.Profile, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitting {
		return ErrCommitInFlight
	}
	next, err := fn(s.working.Clone())
	if err != nil {
		return err
	}
	s.working = next
	s.state = StateOpen
	s.lastErr = ""
	return nil
}

// Commit saves the whole working copy. On success it becomes the baseline;
// on failure the working copy is kept as it was so the commit can be retried.
func (s *EditSession) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateCommitting {
		s.mu.Unlock()
		return ErrCommitInFlight
	}
	s.state = StateCommitting
	rec := s.working.Clone()
	s.mu.Unlock()

	err := s.store.Save(ctx, &rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.lastErr = err.Error()
		return err
	}
	s.baseline = rec.Clone()
	s.working = rec.Clone()
	s.state = StateOpen
	s.lastErr = ""
	return nil
}

func (s *EditSession) Working() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

func (s *EditSession) Baseline() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

func (s *EditSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the message of the last failed commit, if the session has
// not moved on since.
func (s *EditSession) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Dirty reports whether the working copy differs from the baseline.
func (s *EditSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.working.SameContent(s.baseline)
}

// SessionView is what the editor API returns for a session.
type SessionView struct {
	Working   models.Profile `json:"working"`
	Baseline  models.Profile `json:"baseline"`
	Dirty     bool           `json:"dirty"`
	State     SessionState   `json:"state"`
	LastError string         `json:"last_error,omitempty"`
}

func (s *EditSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		Working:   s.working.Clone(),
		Baseline:  s.baseline.Clone(),
		Dirty:     !s.working.SameContent(s.baseline),
		State:     s.state,
		LastError: s.lastErr,
	}
}
