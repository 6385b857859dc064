package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// Repository provides database operations on Postgres
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close releases the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, username, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

const worldColumns = `id, name, description, is_public, user_id, created_at, updated_at`

func scanWorld(row scanner) (*models.World, error) {
	w := &models.World{}
	if err := row.Scan(&w.ID, &w.Name, &w.Description, &w.IsPublic, &w.UserID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorlds retrieves every world owned by the user
func (r *Repository) ListWorlds(ctx context.Context, userID string) ([]models.World, error) {
	query := `
		SELECT ` + worldColumns + `
		FROM worlds
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	defer rows.Close()

	worlds := []models.World{}
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan world: %w", err)
		}
		worlds = append(worlds, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	return worlds, nil
}

// CreateWorld creates a new world in the database
func (r *Repository) CreateWorld(ctx context.Context, world *models.World) error {
	query := `
		INSERT INTO worlds (id, name, description, is_public, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		world.ID, world.Name, world.Description, world.IsPublic, world.UserID, world.CreatedAt, world.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create world: %w", err)
	}
	return nil
}

// FindWorld retrieves a world by id if it belongs to the user
func (r *Repository) FindWorld(ctx context.Context, userID, worldID string) (*models.World, error) {
	query := `
		SELECT ` + worldColumns + `
		FROM worlds
		WHERE id = $1 AND user_id = $2`
	w, err := scanWorld(r.db.QueryRowContext(ctx, query, worldID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find world: %w", err)
	}
	return w, nil
}

// UpdateWorld stores the mutable fields of a world owned by world.UserID
func (r *Repository) UpdateWorld(ctx context.Context, world *models.World) error {
	query := `
		UPDATE worlds
		SET name = $1, description = $2, is_public = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`
	res, err := r.db.ExecContext(ctx, query,
		world.Name, world.Description, world.IsPublic, world.UpdatedAt, world.ID, world.UserID)
	if err != nil {
		return fmt.Errorf("failed to update world: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update world: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorld removes a world and its nested records in a single transaction.
// Children are deleted explicitly even though the schema also cascades.
func (r *Repository) DeleteWorld(ctx context.Context, userID, worldID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM worlds WHERE id = $1 AND user_id = $2 FOR UPDATE`, worldID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock world: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM events WHERE world_id = $1`,
		`DELETE FROM locations WHERE world_id = $1`,
		`DELETE FROM characters WHERE world_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, worldID); err != nil {
			return fmt.Errorf("failed to delete world contents: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM worlds WHERE id = $1 AND user_id = $2`, worldID, userID); err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit world deletion: %w", err)
	}
	return nil
}

// ListCharacters retrieves the characters of a world, newest first
func (r *Repository) ListCharacters(ctx context.Context, worldID string) ([]models.Character, error) {
	query := `
		SELECT id, name, role, description, image_url, world_id, created_at, updated_at
		FROM characters
		WHERE world_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	characters := []models.Character{}
	for rows.Next() {
		var c models.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Description, &c.ImageURL, &c.WorldID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

// ListLocations retrieves the locations of a world, newest first
func (r *Repository) ListLocations(ctx context.Context, worldID string) ([]models.Location, error) {
	query := `
		SELECT id, name, type, description, image_url, parent_id, world_id, created_at, updated_at
		FROM locations
		WHERE world_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Type, &l.Description, &l.ImageURL, &l.ParentID, &l.WorldID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// ListEvents retrieves the events of a world, newest first
func (r *Repository) ListEvents(ctx context.Context, worldID string) ([]models.Event, error) {
	query := `
		SELECT id, name, date, description, world_id, created_at, updated_at
		FROM events
		WHERE world_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Description, &e.WorldID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CreateCharacter creates a new character in the database
func (r *Repository) CreateCharacter(ctx context.Context, c *models.Character) error {
	query := `
		INSERT INTO characters (id, name, role, description, image_url, world_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Role, c.Description, c.ImageURL, c.WorldID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// CreateLocation creates a new location in the database
func (r *Repository) CreateLocation(ctx context.Context, l *models.Location) error {
	query := `
		INSERT INTO locations (id, name, type, description, image_url, parent_id, world_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.Name, l.Type, l.Description, l.ImageURL, l.ParentID, l.WorldID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// CreateEvent creates a new event in the database
func (r *Repository) CreateEvent(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (id, name, date, description, world_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Date, e.Description, e.WorldID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Stats counts the records of every table
func (r *Repository) Stats(ctx context.Context) (*models.StoreStats, error) {
	s := &models.StoreStats{}
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM worlds),
			(SELECT COUNT(*) FROM characters),
			(SELECT COUNT(*) FROM locations),
			(SELECT COUNT(*) FROM events)`
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Users, &s.Worlds, &s.Characters, &s.Locations, &s.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return s, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
