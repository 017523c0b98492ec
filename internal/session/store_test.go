package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/model"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	redisStore, _ := newTestRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  redisStore,
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := store.Create(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)
			assert.Equal(t, model.StatusEmpty, created.Status)

			err = store.Update(ctx, created.ID, func(s *State) error {
				s.BeginDocument("a.pdf")
				s.MarkReady("text", model.AssistantMessage("welcome"))
				return nil
			})
			require.NoError(t, err)

			got, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "a.pdf", got.CurrentDocument)
			assert.True(t, got.CanAsk())
			require.Len(t, got.Messages, 1)

			require.NoError(t, store.Delete(ctx, created.ID))
			_, err = store.Get(ctx, created.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
		})
	}
}

func TestStoreUpdateDiscardsOnError(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := store.Create(ctx)
			require.NoError(t, err)

			boom := errors.New("boom")
			err = store.Update(ctx, created.ID, func(s *State) error {
				s.SetUserName("Ada")
				return boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "", got.UserName)
		})
	}
}

func TestStoreUpdateUnknownSession(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Update(context.Background(), "nope", func(*State) error { return nil })
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreUpdatesAreSerialised(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := store.Create(ctx)
			require.NoError(t, err)

			const turns = 20
			var wg sync.WaitGroup
			for i := 0; i < turns; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Update(ctx, created.ID, func(s *State) error {
						s.Append(model.AssistantMessage("turn"))
						return nil
					}))
				}()
			}
			wg.Wait()

			got, err := store.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Len(t, got.Messages, turns)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	created, err := store.Create(ctx)
	require.NoError(t, err)

	created.SetUserName("mutated outside")
	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.UserName)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL("pdfchat:session:"+created.ID))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTurnLocksForgetIdleSessions(t *testing.T) {
	locks := newTurnLocks()
	unlock := locks.lock("a")
	assert.Len(t, locks.locks, 1)
	unlock()
	assert.Empty(t, locks.locks)
}

func TestStoreUpdateSavesAfterCallerCancels(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			err = store.Update(ctx, created.ID, func(s *State) error {
				s.BeginDocument("a.pdf")
				s.MarkReady("text", model.AssistantMessage("welcome"))
				cancel()
				return nil
			})
			require.NoError(t, err)

			got, err := store.Get(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, "a.pdf", got.CurrentDocument)
			require.Len(t, got.Messages, 1)
		})
	}
}
