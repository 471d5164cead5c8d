package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justinloleng/ecommerce/internal/repository"
	"github.com/justinloleng/ecommerce/pkg/database"
)

const submissionKeyPrefix = "storefront:checkout:"

// SubmissionRepository implements repository.SubmissionRepository with SET NX.
type SubmissionRepository struct {
	client *redis.Client
}

// NewSubmissionRepository creates a Redis-backed submission repository.
func NewSubmissionRepository(client *redis.Client) *SubmissionRepository {
	return &SubmissionRepository{client: client}
}

// Reserve claims the key unless another submission already holds it.
func (r *SubmissionRepository) Reserve(ctx context.Context, sub repository.Submission, ttl time.Duration) (_ bool, _ *repository.Submission, err error) {
	key := submissionKeyPrefix + sub.Key
	ctx, end := database.TraceCommand(ctx, "ReserveSubmission", key)
	defer func() { end(err) }()

	data, err := json.Marshal(sub)
	if err != nil {
		return false, nil, fmt.Errorf("marshal submission: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("redis setnx submission: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; let the caller retry.
			return false, &repository.Submission{Key: sub.Key}, nil
		}
		return false, nil, fmt.Errorf("redis get submission: %w", err)
	}
	var existing repository.Submission
	if err := json.Unmarshal(raw, &existing); err != nil {
		return false, nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return false, &existing, nil
}

// Complete overwrites the reservation with the placed order.
func (r *SubmissionRepository) Complete(ctx context.Context, sub repository.Submission, ttl time.Duration) (err error) {
	key := submissionKeyPrefix + sub.Key
	ctx, end := database.TraceCommand(ctx, "CompleteSubmission", key)
	defer func() { end(err) }()

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set submission: %w", err)
	}
	return nil
}

// Release deletes the reservation.
func (r *SubmissionRepository) Release(ctx context.Context, key string) (err error) {
	redisKey := submissionKeyPrefix + key
	ctx, end := database.TraceCommand(ctx, "ReleaseSubmission", redisKey)
	defer func() { end(err) }()

	if err := r.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("redis del submission: %w", err)
	}
	return nil
}
