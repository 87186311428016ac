package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/repository"
)

// EditorService runs the dashboard: claiming a handle and the edit session
// of each identity. Sessions live in the draft store between requests.
type EditorService struct {
	store  repository.ProfileStore
	drafts DraftStore
	log    logging.Logger

	mu         sync.Mutex
	committing map[uuid.UUID]bool
	owners     map[uuid.UUID]*ownerLock
}

// ownerLock serializes the load, mutate and store steps of one owner's
// session. refs counts holders and waiters so idle locks can be dropped.
type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewEditorService(store repository.ProfileStore, drafts DraftStore, log logging.Logger) *EditorService {
	if log == nil {
		log = logging.Nop{}
	}
	return &EditorService{
		store:      store,
		drafts:     drafts,
		log:        log,
		committing: make(map[uuid.UUID]bool),
		owners:     make(map[uuid.UUID]*ownerLock),
	}
}

// Claim creates the profile of id under username. An identity can claim
// exactly one handle.
func (e *EditorService) Claim(ctx context.Context, id Identity, username, displayName string) (*models.Profile, error) {
	profile, err := models.NewProfile(id.OwnerID, username, displayName, id.AvatarURL)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.FetchByOwner(ctx, id.OwnerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &models.ConflictError{Reason: models.ReasonAlreadyClaimed}
	}

	taken, err := e.store.FetchByHandle(ctx, profile.Username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, &models.ConflictError{Reason: models.ReasonUsernameTaken}
	}

	// The unique index still decides races between the checks and the insert.
	if err := e.store.Create(ctx, profile); err != nil {
		return nil, err
	}

	e.log.Info(ctx, "profile claimed", "owner_id", id.OwnerID, "username", profile.Username)
	return profile, nil
}

// Me returns the caller's profile, or a NotFoundError when the identity has
// not claimed one yet.
func (e *EditorService) Me(ctx context.Context, id Identity) (*models.Profile, error) {
	profile, err := e.store.FetchByOwner(ctx, id.OwnerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &models.NotFoundError{What: "profile"}
	}
	return profile, nil
}

// Open starts a fresh session from the stored profile, dropping any draft.
func (e *EditorService) Open(ctx context.Context, id Identity) (SessionView, error) {
	if e.isCommitting(id.OwnerID) {
		return SessionView{}, ErrCommitInFlight
	}
	unlock := e.lockOwner(id.OwnerID)
	defer unlock()

	sess, err := OpenSession(ctx, e.store, id.OwnerID)
	if err != nil {
		return SessionView{}, err
	}
	if err := e.drafts.Store(ctx, id.OwnerID, sess.Snapshot()); err != nil {
		return SessionView{}, err
	}
	e.log.Debug(ctx, "editor session opened", "owner_id", id.OwnerID)
	return sess.View(), nil
}

// Session returns the current session, opening one when there is no draft.
func (e *EditorService) Session(ctx context.Context, id Identity) (SessionView, error) {
	unlock := e.lockOwner(id.OwnerID)
	defer unlock()

	sess, err := e.session(ctx, id.OwnerID)
	if err != nil {
		return SessionView{}, err
	}
	return sess.View(), nil
}

func (e *EditorService) Stage(ctx context.Context, id Identity, patch models.ProfilePatch) (SessionView, error) {
	return e.update(ctx, id, func(s *EditSession) error { return s.Stage(patch) })
}

func (e *EditorService) AddLink(ctx context.Context, id Identity, title, url string) (SessionView, error) {
	return e.update(ctx, id, func(s *EditSession) error { return s.StageLinkAdd(title, url) })
}

func (e *EditorService) RemoveLink(ctx context.Context, id Identity, index int) (SessionView, error) {
	return e.update(ctx, id, func(s *EditSession) error { return s.StageLinkRemove(index) })
}

// Commit saves the session's working copy. Commits of one owner are
// serialized; a second commit while one runs fails with ErrCommitInFlight,
// as does any edit issued after the commit began. Edits already under way
// finish first and are part of the commit.
// On failure the returned view still carries the unchanged working copy.
func (e *EditorService) Commit(ctx context.Context, id Identity) (SessionView, error) {
	if !e.beginCommit(id.OwnerID) {
		return SessionView{}, ErrCommitInFlight
	}
	defer e.endCommit(id.OwnerID)

	unlock := e.lockOwner(id.OwnerID)
	defer unlock()

	sess, err := e.session(ctx, id.OwnerID)
	if err != nil {
		return SessionView{}, err
	}

	commitErr := sess.Commit(ctx)
	if err := e.drafts.Store(ctx, id.OwnerID, sess.Snapshot()); err != nil {
		if commitErr == nil {
			// the profile is saved; only the draft is stale
			e.log.Warn(ctx, "failed to store draft after commit", "owner_id", id.OwnerID, "error", err)
			_ = e.drafts.Delete(ctx, id.OwnerID)
		} else {
			e.log.Warn(ctx, "failed to store draft after failed commit", "owner_id", id.OwnerID, "error", err)
		}
	}

	if commitErr != nil {
		e.log.Error(ctx, "profile commit failed", "owner_id", id.OwnerID, "error", commitErr)
		return sess.View(), commitErr
	}

	e.log.Info(ctx, "profile committed", "owner_id", id.OwnerID)
	return sess.View(), nil
}

// Discard drops the session. Uncommitted edits are lost.
func (e *EditorService) Discard(ctx context.Context, id Identity) error {
	if e.isCommitting(id.OwnerID) {
		return ErrCommitInFlight
	}
	unlock := e.lockOwner(id.OwnerID)
	defer unlock()

	return e.drafts.Delete(ctx, id.OwnerID)
}

func (e *EditorService) update(ctx context.Context, id Identity, fn func(*EditSession) error) (SessionView, error) {
	if e.isCommitting(id.OwnerID) {
		return SessionView{}, ErrCommitInFlight
	}
	unlock := e.lockOwner(id.OwnerID)
	defer unlock()

	sess, err := e.session(ctx, id.OwnerID)
	if err != nil {
		return SessionView{}, err
	}
	if err := fn(sess); err != nil {
		return SessionView{}, err
	}
	if err := e.drafts.Store(ctx, id.OwnerID, sess.Snapshot()); err != nil {
		return SessionView{}, err
	}
	return sess.View(), nil
}

func (e *EditorService) session(ctx context.Context, ownerID uuid.UUID) (*EditSession, error) {
	snap, err := e.drafts.Load(ctx, ownerID)
	switch {
	case errors.Is(err, models.ErrTransport):
		return nil, err
	case err != nil:
		// an unreadable draft is dropped and the session reopened
		e.log.Warn(ctx, "discarding unreadable draft", "owner_id", ownerID, "error", err)
		snap = nil
	}
	if snap != nil && snap.Baseline.ID == ownerID {
		return RestoreSession(e.store, *snap), nil
	}

	sess, err := OpenSession(ctx, e.store, ownerID)
	if err != nil {
		return nil, err
	}
	if err := e.drafts.Store(ctx, ownerID, sess.Snapshot()); err != nil {
		return nil, err
	}
	return sess, nil
}

// lockOwner blocks until the caller holds the session of ownerID and returns
// the release func.
func (e *EditorService) lockOwner(ownerID uuid.UUID) func() {
	e.mu.Lock()
	l, ok := e.owners[ownerID]
	if !ok {
		l = &ownerLock{}
		e.owners[ownerID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.owners, ownerID)
		}
		e.mu.Unlock()
	}
}

func (e *EditorService) beginCommit(ownerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committing[ownerID] {
		return false
	}
	e.committing[ownerID] = true
	return true
}

func (e *EditorService) endCommit(ownerID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.committing, ownerID)
}

func (e *EditorService) isCommitting(ownerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committing[ownerID]
}
