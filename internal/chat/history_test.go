package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/db"
)

func openCache(t *testing.T) *db.DB {
	t.Helper()
	cache, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestHistory_RefreshReplacesProjection(t *testing.T) {
	backend := newFakeBackend()
	backend.list = func() ([]api.SessionInfo, error) {
		return []api.SessionInfo{{ID: "2", Title: "newer", MessageCount: 4}, {ID: "1", Title: "older"}, {ID: "", Title: "skip"}}, nil
	}
	rec := &recorder{}
	h := NewHistoryIndex(backend, nil, rec)
	defer h.Stop()

	require.NoError(t, h.Refresh(context.Background()))

	sessions := h.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "2", sessions[0].ID)
	assert.Equal(t, 4, sessions[0].MessageCount)
	require.Len(t, rec.History(), 1)

	refreshed, lastErr := h.Status()
	assert.False(t, refreshed.IsZero())
	assert.NoError(t, lastErr)
}

func TestHistory_FailureKeepsStaleProjection(t *testing.T) {
	backend := newFakeBackend()
	fail := false
	backend.list = func() ([]api.SessionInfo, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return []api.SessionInfo{{ID: "1", Title: "kept"}}, nil
	}
	h := NewHistoryIndex(backend, nil, nil)
	defer h.Stop()
	require.NoError(t, h.Refresh(context.Background()))

	fail = true
	require.Error(t, h.Refresh(context.Background()))

	sessions := h.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "kept", sessions[0].Title)
	_, lastErr := h.Status()
	assert.Error(t, lastErr)
}

func TestHistory_CacheRoundTrip(t *testing.T) {
	cache := openCache(t)
	backend := newFakeBackend()
	backend.list = func() ([]api.SessionInfo, error) {
		return []api.SessionInfo{{ID: "5", Title: "from backend"}}, nil
	}

	h := NewHistoryIndex(backend, cache, nil)
	require.NoError(t, h.Refresh(context.Background()))
	h.Stop()

	offline := newFakeBackend()
	offline.list = func() ([]api.SessionInfo, error) { return nil, errors.New("offline") }
	seeded := NewHistoryIndex(offline, cache, nil)
	defer seeded.Stop()

	require.NoError(t, seeded.Seed())
	require.Error(t, seeded.Refresh(context.Background()))

	sessions := seeded.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "from backend", sessions[0].Title)

	cachedAt, lastErr := seeded.Status()
	assert.False(t, cachedAt.IsZero(), "seeded list carries the cache's refresh time")
	assert.Error(t, lastErr)
}

func TestHistory_ScheduleRefreshDebounces(t *testing.T) {
	backend := newFakeBackend()
	backend.list = func() ([]api.SessionInfo, error) { return nil, nil }
	h := NewHistoryIndex(backend, nil, nil)
	defer h.Stop()

	for i := 0; i < 5; i++ {
		h.ScheduleRefresh(30 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return backend.Calls("list") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, backend.Calls("list"))
}

func TestHistory_StopCancelsScheduledRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.list = func() ([]api.SessionInfo, error) { return nil, nil }
	h := NewHistoryIndex(backend, nil, nil)

	h.ScheduleRefresh(20 * time.Millisecond)
	h.Stop()
	h.ScheduleRefresh(0)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, backend.Calls("list"))
}

func TestHistory_ForgetAndLookup(t *testing.T) {
	backend := newFakeBackend()
	backend.list = func() ([]api.SessionInfo, error) {
		return []api.SessionInfo{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}, nil
	}
	h := NewHistoryIndex(backend, nil, nil)
	defer h.Stop()
	require.NoError(t, h.Refresh(context.Background()))

	s, ok := h.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, "b", s.Title)

	h.Forget("2")
	_, ok = h.Lookup("2")
	assert.False(t, ok)
	assert.Len(t, h.Sessions(), 1)
}

func TestHistory_ForgetRacingRefreshNotifiesLatest(t *testing.T) {
	backend := newFakeBackend()
	var mu sync.Mutex
	n := 0
	backend.list = func() ([]api.SessionInfo, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return []api.SessionInfo{{ID: api.ID(fmt.Sprint(n)), Title: "fresh"}, {ID: "keep", Title: "kept"}}, nil
	}
	rec := &recorder{}
	h := NewHistoryIndex(backend, nil, rec)
	defer h.Stop()
	require.NoError(t, h.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Refresh(context.Background())
		}()
		go func(id string) {
			defer wg.Done()
			h.Forget(id)
		}(fmt.Sprint(i))
	}
	wg.Wait()

	history := rec.History()
	require.NotEmpty(t, history)
	assert.Equal(t, h.Sessions(), history[len(history)-1])
	_, ok := h.Lookup("keep")
	assert.True(t, ok)
}
