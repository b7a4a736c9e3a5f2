package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func putDocument(t *testing.T, repo *RedisDraftRepository, guestID, data string) {
	t.Helper()
	require.NoError(t, repo.UpdateDocument(context.Background(), guestID, func([]byte) ([]byte, error) {
		return []byte(data), nil
	}))
}

func TestRedisDraftRepository_Documents(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("missing draft", func(t *testing.T) {
		_, err := repo.GetDocument(ctx, "guest-1")
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		putDocument(t, repo, "guest-1", `{"personal":{"fullName":"Ada"}}`)

		data, err := repo.GetDocument(ctx, "guest-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"personal":{"fullName":"Ada"}}`, string(data))
		assert.Equal(t, time.Hour, mr.TTL("guest:draft:guest-1"))
	})

	t.Run("put refreshes sibling ttl", func(t *testing.T) {
		_, _, err := repo.GetOrCreateDraftID(ctx, "guest-1", func() string { return "draft-1" })
		require.NoError(t, err)
		mr.FastForward(30 * time.Minute)

		putDocument(t, repo, "guest-1", `{}`)
		assert.Equal(t, time.Hour, mr.TTL("guest:draft_id:guest-1"))
	})
}

func TestRedisDraftRepository_DeleteAll(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 0)
	ctx := context.Background()

	putDocument(t, repo, "g", `{}`)
	require.NoError(t, repo.SetEmail(ctx, "g", "ada@example.com"))
	_, _, err := repo.GetOrCreateDraftID(ctx, "g", func() string { return "d" })
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAll(ctx, "g"))
	assert.False(t, mr.Exists("guest:draft:g"))
	assert.False(t, mr.Exists("guest:draft_id:g"))
	assert.False(t, mr.Exists("guest:email:g"))

	// idempotent
	require.NoError(t, repo.DeleteAll(ctx, "g"))
}

func TestRedisDraftRepository_GetOrCreateDraftID(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	calls := 0
	newID := func() string {
		calls++
		if calls == 1 {
			return "first"
		}
		return "second"
	}

	id, created, err := repo.GetOrCreateDraftID(ctx, "g", newID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "first", id)

	id, created, err = repo.GetOrCreateDraftID(ctx, "g", newID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "first", id)
}

func TestRedisDraftRepository_Email(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	_, err := repo.GetEmail(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrEmailNotFound)

	require.NoError(t, repo.SetEmail(ctx, "g", "ada@example.com"))
	email, err := repo.GetEmail(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestRedisDraftRepository_ConnectionError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	repo := NewRedisDraftRepository(client, time.Hour)
	mr.Close()

	_, err = repo.GetDocument(context.Background(), "g")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestMemoryDraftRepository(t *testing.T) {
	repo := NewMemoryDraftRepository()
	ctx := context.Background()

	_, err := repo.GetDocument(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	buf := []byte(`{"a":1}`)
	require.NoError(t, repo.UpdateDocument(ctx, "g", func(current []byte) ([]byte, error) {
		assert.Nil(t, current)
		return buf, nil
	}))
	buf[2] = 'b'

	data, err := repo.GetDocument(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data), "stored bytes are copied")

	id1, created, _ := repo.GetOrCreateDraftID(ctx, "g", func() string { return "x" })
	assert.True(t, created)
	id2, created, _ := repo.GetOrCreateDraftID(ctx, "g", func() string { return "y" })
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	require.NoError(t, repo.SetEmail(ctx, "g", "e@x.io"))
	require.NoError(t, repo.DeleteAll(ctx, "g"))
	_, err = repo.GetEmail(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrEmailNotFound)
}

func TestRedisDraftRepository_UpdateDocument(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("fn sees current value", func(t *testing.T) {
		putDocument(t, repo, "g", `{"n":1}`)
		require.NoError(t, repo.UpdateDocument(ctx, "g", func(current []byte) ([]byte, error) {
			assert.JSONEq(t, `{"n":1}`, string(current))
			return []byte(`{"n":2}`), nil
		}))
		data, err := repo.GetDocument(ctx, "g")
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":2}`, string(data))
	})

	t.Run("fn error leaves value untouched", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.UpdateDocument(ctx, "g", func([]byte) ([]byte, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)

		data, err := repo.GetDocument(ctx, "g")
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":2}`, string(data))
	})

	t.Run("concurrent writers do not lose updates", func(t *testing.T) {
		putDocument(t, repo, "counter", "0")

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.UpdateDocument(ctx, "counter", func(current []byte) ([]byte, error) {
					n, err := strconv.Atoi(string(current))
					if err != nil {
						return nil, err
					}
					return []byte(strconv.Itoa(n + 1)), nil
				}))
			}()
		}
		wg.Wait()

		data, err := repo.GetDocument(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, "5", string(data))
	})
}
