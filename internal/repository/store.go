package repository

import (
	"context"
	"errors"

	"github.com/Dan9191/world-service/internal/models"
)

// Common repository errors
var (
	// ErrNotFound is returned when no record matches the query
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("repository: duplicate entry")
)

// UserStore persists user accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// FindUserByEmail returns ErrNotFound when no user has the email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// WorldStore persists worlds and reads their nested collections.
// Every world lookup, update and delete is scoped by the owner's user id.
type WorldStore interface {
	// ListWorlds returns the user's worlds, most recently updated first.
	ListWorlds(ctx context.Context, userID string) ([]models.World, error)
	CreateWorld(ctx context.Context, world *models.World) error
	// FindWorld returns ErrNotFound unless the world exists and belongs to userID.
	FindWorld(ctx context.Context, userID, worldID string) (*models.World, error)
	// UpdateWorld overwrites name, description, visibility and updatedAt of
	// the world matching world.ID and world.UserID.
	UpdateWorld(ctx context.Context, world *models.World) error
	// DeleteWorld removes the world with all its characters, locations and events.
	DeleteWorld(ctx context.Context, userID, worldID string) error

	ListCharacters(ctx context.Context, worldID string) ([]models.Character, error)
	ListLocations(ctx context.Context, worldID string) ([]models.Location, error)
	ListEvents(ctx context.Context, worldID string) ([]models.Event, error)
}

// ContentStore writes the entities nested under a world
type ContentStore interface {
	CreateCharacter(ctx context.Context, character *models.Character) error
	CreateLocation(ctx context.Context, location *models.Location) error
	CreateEvent(ctx context.Context, event *models.Event) error
}

// Store is the full persistence surface used by the application
type Store interface {
	UserStore
	WorldStore
	ContentStore
	Stats(ctx context.Context) (*models.StoreStats, error)
	Close() error
}
