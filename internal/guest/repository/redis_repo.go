package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
)

const (
	draftKeyPrefix   = "guest:draft:"    // serialized document: guest:draft:{guest_id}
	draftIDKeyPrefix = "guest:draft_id:" // stable draft id: guest:draft_id:{guest_id}
	emailKeyPrefix   = "guest:email:"    // captured signup email: guest:email:{guest_id}
	defaultDraftTTL  = 30 * 24 * time.Hour
	maxUpdateRetries = 10
)

// RedisDraftRepository keeps one guest's draft under three keys that share a TTL.
type RedisDraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftRepository(client *redis.Client, ttl time.Duration) *RedisDraftRepository {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &RedisDraftRepository{client: client, ttl: ttl}
}

func (r *RedisDraftRepository) GetDocument(ctx context.Context, guestID string) ([]byte, error) {
	data, err := r.client.Get(ctx, draftKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return data, nil
}

// UpdateDocument runs a read-modify-write of the document under WATCH, so
// concurrent writers of different sections cannot drop each other's data.
// fn gets nil when no draft is stored. The sibling keys' TTL slides with it.
func (r *RedisDraftRepository) UpdateDocument(ctx context.Context, guestID string, fn func(current []byte) ([]byte, error)) error {
	key := draftKey(guestID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("failed to get draft: %w", err)
		}

		data, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.Expire(ctx, draftIDKey(guestID), r.ttl)
			pipe.Expire(ctx, emailKey(guestID), r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		return nil
	}
	return domain.ErrDraftConflict
}

// DeleteAll removes document, draft id and email in one MULTI/EXEC.
func (r *RedisDraftRepository) DeleteAll(ctx context.Context, guestID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, draftKey(guestID), draftIDKey(guestID), emailKey(guestID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// GetOrCreateDraftID uses SETNX so concurrent first calls agree on one id.
func (r *RedisDraftRepository) GetOrCreateDraftID(ctx context.Context, guestID string, newID func() string) (string, bool, error) {
	key := draftIDKey(guestID)

	created, err := r.client.SetNX(ctx, key, newID(), r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to create draft id: %w", err)
	}

	id, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to get draft id: %w", err)
	}
	return id, created, nil
}

func (r *RedisDraftRepository) SetEmail(ctx context.Context, guestID, email string) error {
	if err := r.client.Set(ctx, emailKey(guestID), email, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save email: %w", err)
	}
	return nil
}

func (r *RedisDraftRepository) GetEmail(ctx context.Context, guestID string) (string, error) {
	email, err := r.client.Get(ctx, emailKey(guestID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrEmailNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get email: %w", err)
	}
	return email, nil
}

func draftKey(guestID string) string   { return draftKeyPrefix + guestID }
func draftIDKey(guestID string) string { return draftIDKeyPrefix + guestID }
func emailKey(guestID string) string   { return emailKeyPrefix + guestID }
