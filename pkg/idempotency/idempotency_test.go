package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	seen        map[string]bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]bool{}}
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "bd:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		f.lastDeleted = key
		delete(f.seen, key)
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)
	require.False(t, already)
	require.Equal(t, "bd:idempotency:evt:processed:notifications-worker:"+eventID.String(), store.lastKey)
	require.Equal(t, 24*time.Hour, store.lastTTL)

	already, err = manager.CheckAndMarkProcessed(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)
	require.True(t, already)
}

func TestDeleteAllowsReprocessing(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	_, err = manager.CheckAndMarkProcessed(context.Background(), "c", eventID)
	require.NoError(t, err)
	require.NoError(t, manager.Delete(context.Background(), "c", eventID))

	already, err := manager.CheckAndMarkProcessed(context.Background(), "c", eventID)
	require.NoError(t, err)
	require.False(t, already)
}

func TestCheckAndMarkProcessedErrors(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	require.Error(t, err)
	_, err = manager.CheckAndMarkProcessed(context.Background(), "c", uuid.Nil)
	require.Error(t, err)

	store.setNXError = errors.New("redis down")
	_, err = manager.CheckAndMarkProcessed(context.Background(), "c", uuid.New())
	require.ErrorContains(t, err, "redis down")
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	require.Error(t, err)
	_, err = NewManager(newFakeStore(), -time.Second)
	require.Error(t, err)
}
