package imagechat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SessionStore, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	store, err := NewSessionStore(context.Background(), storage, nil)
	require.NoError(t, err)
	return store, storage
}

func TestSessionStore_StartsWithOneSession(t *testing.T) {
	store, _ := newTestStore(t)

	sessions := store.List()
	require.Len(t, sessions, 1)
	assert.Equal(t, defaultSessionTitle, sessions[0].Title)
	assert.Empty(t, sessions[0].Messages)
	assert.Equal(t, sessions[0].ID, store.ActiveID())
}

func TestSessionStore_TitleDerivation(t *testing.T) {
	ctx := context.Background()

	t.Run("short message kept in full", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleUser, Content: "a red fox in snow"}))

		active, err := store.Active()
		require.NoError(t, err)
		assert.Equal(t, "a red fox in snow", active.Title)
	})

	t.Run("long message truncated to 30 runes plus ellipsis", func(t *testing.T) {
		store, _ := newTestStore(t)
		long := strings.Repeat("a detailed oil painting ", 4)
		require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleUser, Content: long}))

		active, err := store.Active()
		require.NoError(t, err)
		assert.Equal(t, string([]rune(long)[:30])+"...", active.Title)
		assert.Len(t, []rune(active.Title), 33)
	})

	t.Run("system message does not set the title", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleSystem, Content: "parameters updated"}))

		active, err := store.Active()
		require.NoError(t, err)
		assert.Equal(t, defaultSessionTitle, active.Title)
	})

	t.Run("title locked after first user message", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleUser, Content: "first"}))
		require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleUser, Content: "second"}))

		active, err := store.Active()
		require.NoError(t, err)
		assert.Equal(t, "first", active.Title)
	})
}

func TestSessionStore_PrependOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first := store.ActiveID()
	second, err := store.Create(ctx)
	require.NoError(t, err)
	third, err := store.Create(ctx)
	require.NoError(t, err)

	sessions := store.List()
	require.Len(t, sessions, 3)
	assert.Equal(t, third.ID, sessions[0].ID, "newest session first")
	assert.Equal(t, second.ID, sessions[1].ID)
	assert.Equal(t, first, sessions[2].ID)
	assert.Equal(t, third.ID, store.ActiveID(), "new session becomes active")
}

func TestSessionStore_LoadSwitchesWithoutTouchingOthers(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first := store.ActiveID()
	require.NoError(t, store.Append(ctx, first, Message{Role: RoleUser, Content: "hello"}))

	_, err := store.Create(ctx)
	require.NoError(t, err)

	loaded, err := store.Load(first)
	require.NoError(t, err)
	assert.Equal(t, first, store.ActiveID())
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "hello", loaded.Messages[0].Content)

	_, err = store.Load("missing-id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_AppendUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Append(context.Background(), "missing-id", Message{Role: RoleUser, Content: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Append(ctx, store.ActiveID(), Message{Role: RoleUser, Content: "hello"}))
	_, err := store.Create(ctx)
	require.NoError(t, err)

	fresh, err := store.ClearAll(ctx)
	require.NoError(t, err)

	sessions := store.List()
	require.Len(t, sessions, 1, "clearAll leaves exactly one session, never zero")
	assert.Equal(t, fresh.ID, sessions[0].ID)
	assert.Empty(t, sessions[0].Messages)
	assert.Equal(t, fresh.ID, store.ActiveID())
}

func TestSessionStore_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()

	store, err := NewSessionStore(ctx, storage, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, store.ActiveID(), Message{
		Role:    RoleAssistant,
		Content: "Generated 1 image(s)",
		Images:  []GeneratedImage{{URL: "https://img.example/a.png"}},
	}))

	// A second store over the same storage sees the persisted state.
	reloaded, err := NewSessionStore(ctx, storage, nil)
	require.NoError(t, err)

	sessions := reloaded.List()
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, "https://img.example/a.png", sessions[0].Messages[0].Images[0].URL)
	assert.Equal(t, sessions[0].ID, reloaded.ActiveID(), "most recent session becomes active on load")
}
