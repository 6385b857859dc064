package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMemory(t *testing.T) *MemoryStore {
	t.Helper()
	m, err := NewMemoryStore()
	require.NoError(t, err)
	return m
}

func seedWorld(t *testing.T, m *MemoryStore, id, userID string, updated time.Time) *models.World {
	t.Helper()
	w := &models.World{ID: id, Name: "world " + id, UserID: userID, CreatedAt: t0, UpdatedAt: updated}
	require.NoError(t, m.CreateWorld(context.Background(), w))
	return w
}

func TestMemoryStore_CreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	require.NoError(t, m.CreateUser(ctx, &models.User{ID: "u1", Email: "a@example.com", Username: "alice"}))

	err := m.CreateUser(ctx, &models.User{ID: "u2", Email: "a@example.com", Username: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = m.CreateUser(ctx, &models.User{ID: "u3", Email: "b@example.com", Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := m.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = m.FindUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListWorlds_OrderAndOwnership(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	seedWorld(t, m, "a", "u1", t0)
	seedWorld(t, m, "b", "u1", t0.Add(time.Hour))
	seedWorld(t, m, "c", "u1", t0)
	seedWorld(t, m, "x", "u2", t0.Add(2*time.Hour))

	worlds, err := m.ListWorlds(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, worlds, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{worlds[0].ID, worlds[1].ID, worlds[2].ID})

	worlds, err = m.ListWorlds(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, worlds)
	assert.Empty(t, worlds)
}

func TestMemoryStore_FindWorld_OtherUser(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	seedWorld(t, m, "w1", "u1", t0)

	_, err := m.FindWorld(ctx, "u2", "w1")
	assert.ErrorIs(t, err, ErrNotFound)

	w, err := m.FindWorld(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "world w1", w.Name)

	// returned records are copies
	w.Name = "mutated"
	again, err := m.FindWorld(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "world w1", again.Name)
}

func TestMemoryStore_UpdateWorld(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	w := seedWorld(t, m, "w1", "u1", t0)

	w.Name = "renamed"
	w.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, m.UpdateWorld(ctx, w))

	got, err := m.FindWorld(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)

	stolen := *w
	stolen.UserID = "u2"
	assert.ErrorIs(t, m.UpdateWorld(ctx, &stolen), ErrNotFound)
}

func TestMemoryStore_DeleteWorld_RemovesContents(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	seedWorld(t, m, "w1", "u1", t0)
	seedWorld(t, m, "w2", "u1", t0)

	require.NoError(t, m.CreateCharacter(ctx, &models.Character{ID: "c1", Name: "Ari", WorldID: "w1", CreatedAt: t0}))
	require.NoError(t, m.CreateLocation(ctx, &models.Location{ID: "l1", Name: "Keep", WorldID: "w1", CreatedAt: t0}))
	require.NoError(t, m.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Fall", WorldID: "w1", CreatedAt: t0}))
	require.NoError(t, m.CreateCharacter(ctx, &models.Character{ID: "c2", Name: "Bo", WorldID: "w2", CreatedAt: t0}))

	assert.ErrorIs(t, m.DeleteWorld(ctx, "u2", "w1"), ErrNotFound)
	require.NoError(t, m.DeleteWorld(ctx, "u1", "w1"))
	assert.ErrorIs(t, m.DeleteWorld(ctx, "u1", "w1"), ErrNotFound)

	characters, err := m.ListCharacters(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, characters)
	locations, err := m.ListLocations(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, locations)
	events, err := m.ListEvents(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, events)

	characters, err = m.ListCharacters(ctx, "w2")
	require.NoError(t, err)
	assert.Len(t, characters, 1)

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StoreStats{Worlds: 1, Characters: 1}, *stats)
}

func TestMemoryStore_ChildrenNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	seedWorld(t, m, "w1", "u1", t0)

	require.NoError(t, m.CreateEvent(ctx, &models.Event{ID: "old", Name: "Dawn", WorldID: "w1", CreatedAt: t0}))
	require.NoError(t, m.CreateEvent(ctx, &models.Event{ID: "new", Name: "Dusk", WorldID: "w1", CreatedAt: t0.Add(time.Hour)}))

	events, err := m.ListEvents(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "new", events[0].ID)
	assert.Equal(t, "old", events[1].ID)
}

func TestMemoryStore_CreateChild_MissingWorld(t *testing.T) {
	m := newMemory(t)
	err := m.CreateLocation(context.Background(), &models.Location{ID: "l1", Name: "Nowhere", WorldID: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}
