// Package memory holds process-local repositories for the terminal client
// and for running the server without Redis.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/repository"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
)

// SessionRepository implements repository.SessionRepository in memory.
type SessionRepository struct {
	mu         sync.RWMutex
	snapshots  map[int64]*domain.CartSnapshot
	selections map[int64][]int64
}

// NewSessionRepository creates an empty in-memory session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		snapshots:  make(map[int64]*domain.CartSnapshot),
		selections: make(map[int64][]int64),
	}
}

func (r *SessionRepository) GetSnapshot(_ context.Context, userID int64) (*domain.CartSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[userID]
	if !ok {
		return nil, apperrors.NotFound("cart snapshot", strconv.FormatInt(userID, 10))
	}
	return domain.NewSnapshot(snap.UserID, snap.Items, snap.Source, snap.FetchedAt), nil
}

func (r *SessionRepository) SaveSnapshot(_ context.Context, snap *domain.CartSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.UserID] = domain.NewSnapshot(snap.UserID, snap.Items, snap.Source, snap.FetchedAt)
	return nil
}

func (r *SessionRepository) GetSelection(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids, ok := r.selections[userID]
	if !ok {
		return nil, apperrors.NotFound("cart selection", strconv.FormatInt(userID, 10))
	}
	return append([]int64{}, ids...), nil
}

func (r *SessionRepository) SaveSelection(_ context.Context, userID int64, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections[userID] = append([]int64{}, ids...)
	return nil
}

func (r *SessionRepository) DeleteSelection(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selections, userID)
	return nil
}

type submissionEntry struct {
	sub     repository.Submission
	expires time.Time
}

// SubmissionRepository implements repository.SubmissionRepository in memory.
type SubmissionRepository struct {
	mu      sync.Mutex
	entries map[string]submissionEntry
	now     func() time.Time
}

// NewSubmissionRepository creates an empty in-memory submission repository.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		entries: make(map[string]submissionEntry),
		now:     time.Now,
	}
}

func (r *SubmissionRepository) Reserve(_ context.Context, sub repository.Submission, ttl time.Duration) (bool, *repository.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sub.Key]; ok && r.now().Before(e.expires) {
		existing := e.sub
		return false, &existing, nil
	}
	r.entries[sub.Key] = submissionEntry{sub: sub, expires: r.now().Add(ttl)}
	return true, nil, nil
}

func (r *SubmissionRepository) Complete(_ context.Context, sub repository.Submission, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sub.Key] = submissionEntry{sub: sub, expires: r.now().Add(ttl)}
	return nil
}

func (r *SubmissionRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}
