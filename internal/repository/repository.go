package repository

import (
	"context"
	"time"

	"github.com/justinloleng/ecommerce/internal/domain"
)

// SessionRepository keeps per-user storefront state between requests: the
// last authoritative cart snapshot and the checkout selection.
type SessionRepository interface {
	// GetSnapshot returns the last snapshot saved for the user, or a
	// NotFound error.
	GetSnapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error)

	// SaveSnapshot replaces the stored snapshot for snapshot.UserID.
	SaveSnapshot(ctx context.Context, snapshot *domain.CartSnapshot) error

	// GetSelection returns the selected cart-line ids, or a NotFound error
	// when the user has no selection yet. An empty slice is a valid
	// selection.
	GetSelection(ctx context.Context, userID int64) ([]int64, error)

	// SaveSelection replaces the user's selection.
	SaveSelection(ctx context.Context, userID int64, ids []int64) error

	// DeleteSelection drops the selection. The next read starts over.
	DeleteSelection(ctx context.Context, userID int64) error
}

// Submission is the outcome of a checkout submission keyed by its
// idempotency key. OrderID is zero while the submission is in flight.
type Submission struct {
	Key     string `json:"key"`
	UserID  int64  `json:"user_id"`
	OrderID int64  `json:"order_id"`
}

// SubmissionRepository deduplicates checkout submissions.
type SubmissionRepository interface {
	// Reserve claims key for the user. It returns false and the existing
	// submission when the key was already claimed.
	Reserve(ctx context.Context, sub Submission, ttl time.Duration) (bool, *Submission, error)

	// Complete records the order placed for a reserved key.
	Complete(ctx context.Context, sub Submission, ttl time.Duration) error

	// Release forgets a reservation whose submission failed.
	Release(ctx context.Context, key string) error
}
