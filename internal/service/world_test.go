package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/Dan9191/world-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestWorldService(t *testing.T) (*WorldService, *repository.MemoryStore) {
	t.Helper()
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)
	svc := NewWorldService(store, quietLogger())
	clock := &testClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func TestWorldService_CreateWorld(t *testing.T) {
	svc, _ := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "u1", "Elysium", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "Elysium", w.Name)
	assert.Equal(t, "", w.Description)
	assert.False(t, w.IsPublic)
	assert.Equal(t, "u1", w.UserID)
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)

	w, err = svc.CreateWorld(ctx, "u1", "Avalon", ptr("misty isle"))
	require.NoError(t, err)
	assert.Equal(t, "misty isle", w.Description)
}

func TestWorldService_CreateWorld_NameRequired(t *testing.T) {
	svc, _ := newTestWorldService(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := svc.CreateWorld(context.Background(), "u1", name, nil)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "World name is required", vErr.Message)
	}
}

func TestWorldService_ListWorlds_OrderedByUpdate(t *testing.T) {
	svc, _ := newTestWorldService(t)
	ctx := context.Background()

	empty, err := svc.ListWorlds(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.CreateWorld(ctx, "u1", "First", nil)
	require.NoError(t, err)
	second, err := svc.CreateWorld(ctx, "u1", "Second", nil)
	require.NoError(t, err)

	worlds, err := svc.ListWorlds(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, worlds, 2)
	assert.Equal(t, second.ID, worlds[0].ID)

	_, err = svc.UpdateWorld(ctx, "u1", first.ID, models.WorldPatch{Description: ptr("touched")})
	require.NoError(t, err)

	worlds, err = svc.ListWorlds(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, worlds[0].ID)
}

func TestWorldService_OtherUsersWorldIsNotFound(t *testing.T) {
	svc, _ := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "owner", "Private", nil)
	require.NoError(t, err)

	_, err = svc.GetWorld(ctx, "intruder", w.ID)
	assert.ErrorIs(t, err, ErrWorldNotFound)
	_, err = svc.UpdateWorld(ctx, "intruder", w.ID, models.WorldPatch{Name: ptr("Mine")})
	assert.ErrorIs(t, err, ErrWorldNotFound)
	assert.ErrorIs(t, svc.DeleteWorld(ctx, "intruder", w.ID), ErrWorldNotFound)
	_, err = svc.ExportWorld(ctx, "intruder", w.ID)
	assert.ErrorIs(t, err, ErrWorldNotFound)

	worlds, err := svc.ListWorlds(ctx, "intruder")
	require.NoError(t, err)
	assert.Empty(t, worlds)

	got, err := svc.GetWorld(ctx, "owner", w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Name)
}

func TestWorldService_GetWorld_Composition(t *testing.T) {
	svc, store := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "u1", "Elysium", nil)
	require.NoError(t, err)

	detail, err := svc.GetWorld(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.Characters)
	assert.NotNil(t, detail.Locations)
	assert.NotNil(t, detail.Events)
	assert.Empty(t, detail.Characters)

	now := time.Now().UTC()
	require.NoError(t, store.CreateCharacter(ctx, &models.Character{ID: "c1", Name: "Ari", WorldID: w.ID, CreatedAt: now}))
	require.NoError(t, store.CreateLocation(ctx, &models.Location{ID: "l1", Name: "Keep", WorldID: w.ID, CreatedAt: now}))
	require.NoError(t, store.CreateEvent(ctx, &models.Event{ID: "e1", Name: "Founding", WorldID: w.ID, CreatedAt: now}))

	detail, err = svc.GetWorld(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Characters, 1)
	assert.Len(t, detail.Locations, 1)
	assert.Len(t, detail.Events, 1)

	_, err = svc.GetWorld(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrWorldNotFound)
}

func TestWorldService_UpdateWorld_PartialSemantics(t *testing.T) {
	svc, _ := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "u1", "Elysium", ptr("fields of gold"))
	require.NoError(t, err)

	updated, err := svc.UpdateWorld(ctx, "u1", w.ID, models.WorldPatch{IsPublic: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Elysium", updated.Name)
	assert.Equal(t, "fields of gold", updated.Description)
	assert.True(t, updated.IsPublic)
	assert.True(t, updated.UpdatedAt.After(w.UpdatedAt))
	assert.Equal(t, w.CreatedAt, updated.CreatedAt)

	updated, err = svc.UpdateWorld(ctx, "u1", w.ID, models.WorldPatch{Name: ptr(""), Description: ptr(""), IsPublic: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Elysium", updated.Name)
	assert.Equal(t, "", updated.Description)
	assert.False(t, updated.IsPublic)

	updated, err = svc.UpdateWorld(ctx, "u1", w.ID, models.WorldPatch{Name: ptr("Elysium Prime")})
	require.NoError(t, err)
	assert.Equal(t, "Elysium Prime", updated.Name)

	stored, err := svc.GetWorld(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, stored.World)
}

func TestWorldService_DeleteWorld_Twice(t *testing.T) {
	svc, store := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "u1", "Doomed", nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateCharacter(ctx, &models.Character{ID: "c1", Name: "Ari", WorldID: w.ID}))

	require.NoError(t, svc.DeleteWorld(ctx, "u1", w.ID))
	assert.ErrorIs(t, svc.DeleteWorld(ctx, "u1", w.ID), ErrWorldNotFound)

	_, err = svc.GetWorld(ctx, "u1", w.ID)
	assert.ErrorIs(t, err, ErrWorldNotFound)

	characters, err := store.ListCharacters(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, characters)
}

func TestWorldService_ExportWorld(t *testing.T) {
	svc, _ := newTestWorldService(t)
	ctx := context.Background()

	w, err := svc.CreateWorld(ctx, "u1", "Elysium", nil)
	require.NoError(t, err)

	doc, err := svc.ExportWorld(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(doc), "<name>Elysium</name>"))
}
