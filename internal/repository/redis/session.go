package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/database"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
)

const (
	snapshotKeyPrefix  = "storefront:snapshot:"
	selectionKeyPrefix = "storefront:selection:"
)

// SessionRepository implements repository.SessionRepository using Redis.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. Keys expire
// ttl after their last write.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(userID int64) string {
	return snapshotKeyPrefix + strconv.FormatInt(userID, 10)
}

func selectionKey(userID int64) string {
	return selectionKeyPrefix + strconv.FormatInt(userID, 10)
}

// GetSnapshot retrieves the last known cart snapshot.
func (r *SessionRepository) GetSnapshot(ctx context.Context, userID int64) (_ *domain.CartSnapshot, err error) {
	key := snapshotKey(userID)
	ctx, end := database.TraceCommand(ctx, "GetSnapshot", key)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	var snap domain.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot stores the snapshot with the configured TTL.
func (r *SessionRepository) SaveSnapshot(ctx context.Context, snap *domain.CartSnapshot) (err error) {
	key := snapshotKey(snap.UserID)
	ctx, end := database.TraceCommand(ctx, "SaveSnapshot", key)
	defer func() { end(err) }()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// GetSelection retrieves the selected cart-line ids.
func (r *SessionRepository) GetSelection(ctx context.Context, userID int64) (_ []int64, err error) {
	key := selectionKey(userID)
	ctx, end := database.TraceCommand(ctx, "GetSelection", key)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart selection", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("redis get selection: %w", err)
	}

	ids := []int64{}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal selection: %w", err)
	}
	return ids, nil
}

// SaveSelection stores the selected ids with the configured TTL.
func (r *SessionRepository) SaveSelection(ctx context.Context, userID int64, ids []int64) (err error) {
	key := selectionKey(userID)
	ctx, end := database.TraceCommand(ctx, "SaveSelection", key)
	defer func() { end(err) }()

	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set selection: %w", err)
	}
	return nil
}

// DeleteSelection removes the user's selection.
func (r *SessionRepository) DeleteSelection(ctx context.Context, userID int64) (err error) {
	key := selectionKey(userID)
	ctx, end := database.TraceCommand(ctx, "DeleteSelection", key)
	defer func() { end(err) }()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del selection: %w", err)
	}
	return nil
}
