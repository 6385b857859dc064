package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/hashicorp/go-memdb"
)

const (
	tableUsers      = "users"
	tableWorlds     = "worlds"
	tableCharacters = "characters"
	tableLocations  = "locations"
	tableEvents     = "events"

	indexID       = "id"
	indexEmail    = "email"
	indexUsername = "username"
	indexUserID   = "user_id"
	indexWorldID  = "world_id"
)

func byWorldTable(name string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			indexID:      {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
			indexWorldID: {Name: indexWorldID, Indexer: &memdb.StringFieldIndex{Field: "WorldID"}},
		},
	}
}

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:       {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexEmail:    {Name: indexEmail, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Email"}},
					indexUsername: {Name: indexUsername, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Username"}},
				},
			},
			tableWorlds: {
				Name: tableWorlds,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:     {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexUserID: {Name: indexUserID, Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
				},
			},
			tableCharacters: byWorldTable(tableCharacters),
			tableLocations:  byWorldTable(tableLocations),
			tableEvents:     byWorldTable(tableEvents),
		},
	}
}

// MemoryStore is a Store kept in process memory. Records are copied on
// the way in and out so callers never share pointers with the database.
type MemoryStore struct {
	db *memdb.MemDB
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

// CreateUser stores a user, rejecting a taken email or username
func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	for index, value := range map[string]string{indexEmail: user.Email, indexUsername: user.Username} {
		existing, err := txn.First(tableUsers, index, value)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", index, err)
		}
		if existing != nil {
			return ErrDuplicate
		}
	}

	u := *user
	if err := txn.Insert(tableUsers, &u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	txn.Commit()
	return nil
}

// FindUserByEmail retrieves a user by email
func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableUsers, indexEmail, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	u := *raw.(*models.User)
	return &u, nil
}

// ListWorlds retrieves every world owned by the user, most recently updated first
func (m *MemoryStore) ListWorlds(_ context.Context, userID string) ([]models.World, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableWorlds, indexUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	worlds := []models.World{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		worlds = append(worlds, *raw.(*models.World))
	}
	sort.Slice(worlds, func(i, j int) bool {
		if !worlds[i].UpdatedAt.Equal(worlds[j].UpdatedAt) {
			return worlds[i].UpdatedAt.After(worlds[j].UpdatedAt)
		}
		return worlds[i].ID > worlds[j].ID
	})
	return worlds, nil
}

// CreateWorld stores a new world
func (m *MemoryStore) CreateWorld(_ context.Context, world *models.World) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	w := *world
	if err := txn.Insert(tableWorlds, &w); err != nil {
		return fmt.Errorf("failed to create world: %w", err)
	}
	txn.Commit()
	return nil
}

func findOwnedWorld(txn *memdb.Txn, userID, worldID string) (*models.World, error) {
	raw, err := txn.First(tableWorlds, indexID, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to find world: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	w := raw.(*models.World)
	if w.UserID != userID {
		return nil, ErrNotFound
	}
	return w, nil
}

// FindWorld retrieves a world by id if it belongs to the user
func (m *MemoryStore) FindWorld(_ context.Context, userID, worldID string) (*models.World, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	w, err := findOwnedWorld(txn, userID, worldID)
	if err != nil {
		return nil, err
	}
	out := *w
	return &out, nil
}

// UpdateWorld stores the mutable fields of a world owned by world.UserID
func (m *MemoryStore) UpdateWorld(_ context.Context, world *models.World) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	current, err := findOwnedWorld(txn, world.UserID, world.ID)
	if err != nil {
		return err
	}
	updated := *current
	updated.Name = world.Name
	updated.Description = world.Description
	updated.IsPublic = world.IsPublic
	updated.UpdatedAt = world.UpdatedAt
	if err := txn.Insert(tableWorlds, &updated); err != nil {
		return fmt.Errorf("failed to update world: %w", err)
	}
	txn.Commit()
	return nil
}

// DeleteWorld removes a world and its nested records in one write transaction
func (m *MemoryStore) DeleteWorld(_ context.Context, userID, worldID string) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	w, err := findOwnedWorld(txn, userID, worldID)
	if err != nil {
		return err
	}
	for _, table := range []string{tableEvents, tableLocations, tableCharacters} {
		if _, err := txn.DeleteAll(table, indexWorldID, worldID); err != nil {
			return fmt.Errorf("failed to delete %s of world: %w", table, err)
		}
	}
	if err := txn.Delete(tableWorlds, w); err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}
	txn.Commit()
	return nil
}

func (m *MemoryStore) listByWorld(table, worldID string) ([]any, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, indexWorldID, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	var out []any
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw)
	}
	return out, nil
}

// ListCharacters retrieves the characters of a world, newest first
func (m *MemoryStore) ListCharacters(_ context.Context, worldID string) ([]models.Character, error) {
	raws, err := m.listByWorld(tableCharacters, worldID)
	if err != nil {
		return nil, err
	}
	characters := make([]models.Character, 0, len(raws))
	for _, raw := range raws {
		characters = append(characters, *raw.(*models.Character))
	}
	sort.Slice(characters, func(i, j int) bool {
		return newerFirst(characters[i].CreatedAt.UnixNano(), characters[j].CreatedAt.UnixNano(), characters[i].ID, characters[j].ID)
	})
	return characters, nil
}

// ListLocations retrieves the locations of a world, newest first
func (m *MemoryStore) ListLocations(_ context.Context, worldID string) ([]models.Location, error) {
	raws, err := m.listByWorld(tableLocations, worldID)
	if err != nil {
		return nil, err
	}
	locations := make([]models.Location, 0, len(raws))
	for _, raw := range raws {
		locations = append(locations, *raw.(*models.Location))
	}
	sort.Slice(locations, func(i, j int) bool {
		return newerFirst(locations[i].CreatedAt.UnixNano(), locations[j].CreatedAt.UnixNano(), locations[i].ID, locations[j].ID)
	})
	return locations, nil
}

// ListEvents retrieves the events of a world, newest first
func (m *MemoryStore) ListEvents(_ context.Context, worldID string) ([]models.Event, error) {
	raws, err := m.listByWorld(tableEvents, worldID)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, *raw.(*models.Event))
	}
	sort.Slice(events, func(i, j int) bool {
		return newerFirst(events[i].CreatedAt.UnixNano(), events[j].CreatedAt.UnixNano(), events[i].ID, events[j].ID)
	})
	return events, nil
}

func newerFirst(a, b int64, idA, idB string) bool {
	if a != b {
		return a > b
	}
	return idA > idB
}

func (m *MemoryStore) insertChild(table, worldID string, obj any) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableWorlds, indexID, worldID)
	if err != nil {
		return fmt.Errorf("failed to find world: %w", err)
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Insert(table, obj); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	txn.Commit()
	return nil
}

// CreateCharacter stores a character under an existing world
func (m *MemoryStore) CreateCharacter(_ context.Context, c *models.Character) error {
	cp := *c
	return m.insertChild(tableCharacters, c.WorldID, &cp)
}

// CreateLocation stores a location under an existing world
func (m *MemoryStore) CreateLocation(_ context.Context, l *models.Location) error {
	cp := *l
	return m.insertChild(tableLocations, l.WorldID, &cp)
}

// CreateEvent stores an event under an existing world
func (m *MemoryStore) CreateEvent(_ context.Context, e *models.Event) error {
	cp := *e
	return m.insertChild(tableEvents, e.WorldID, &cp)
}

// Stats counts the records of every table
func (m *MemoryStore) Stats(_ context.Context) (*models.StoreStats, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	count := func(table string) (int64, error) {
		it, err := txn.Get(table, indexID+"_prefix", "")
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", table, err)
		}
		var n int64
		for raw := it.Next(); raw != nil; raw = it.Next() {
			n++
		}
		return n, nil
	}

	s := &models.StoreStats{}
	for table, dst := range map[string]*int64{
		tableUsers:      &s.Users,
		tableWorlds:     &s.Worlds,
		tableCharacters: &s.Characters,
		tableLocations:  &s.Locations,
		tableEvents:     &s.Events,
	} {
		n, err := count(table)
		if err != nil {
			return nil, err
		}
		*dst = n
	}
	return s, nil
}
