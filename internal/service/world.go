package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/world-service/internal/export"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/Dan9191/world-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WorldService implements world CRUD scoped to the owning user
type WorldService struct {
	store repository.WorldStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewWorldService initializes a new world service
func NewWorldService(store repository.WorldStore, log *logrus.Logger) *WorldService {
	return &WorldService{store: store, log: log, now: time.Now}
}

// ListWorlds returns every world the user owns, most recently updated first
func (s *WorldService) ListWorlds(ctx context.Context, userID string) ([]models.World, error) {
	worlds, err := s.store.ListWorlds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if worlds == nil {
		worlds = []models.World{}
	}
	return worlds, nil
}

// CreateWorld creates a private world. A nil description is stored as "".
func (s *WorldService) CreateWorld(ctx context.Context, userID, name string, description *string) (*models.World, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("World name is required")
	}

	now := s.now().UTC()
	world := &models.World{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description != nil {
		world.Description = *description
	}

	if err := s.store.CreateWorld(ctx, world); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "world_id": world.ID}).Info("World created")
	return world, nil
}

// GetWorld returns an owned world together with its characters, locations and events
func (s *WorldService) GetWorld(ctx context.Context, userID, worldID string) (*models.WorldDetail, error) {
	world, err := s.findWorld(ctx, userID, worldID)
	if err != nil {
		return nil, err
	}

	detail := &models.WorldDetail{World: *world}
	if detail.Characters, err = s.store.ListCharacters(ctx, worldID); err != nil {
		return nil, err
	}
	if detail.Locations, err = s.store.ListLocations(ctx, worldID); err != nil {
		return nil, err
	}
	if detail.Events, err = s.store.ListEvents(ctx, worldID); err != nil {
		return nil, err
	}

	if detail.Characters == nil {
		detail.Characters = []models.Character{}
	}
	if detail.Locations == nil {
		detail.Locations = []models.Location{}
	}
	if detail.Events == nil {
		detail.Events = []models.Event{}
	}
	return detail, nil
}

// UpdateWorld applies a partial update to an owned world
func (s *WorldService) UpdateWorld(ctx context.Context, userID, worldID string, patch models.WorldPatch) (*models.World, error) {
	world, err := s.findWorld(ctx, userID, worldID)
	if err != nil {
		return nil, err
	}

	patch.Apply(world)
	world.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateWorld(ctx, world); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorldNotFound
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "world_id": worldID}).Info("World updated")
	return world, nil
}

// DeleteWorld permanently removes an owned world and everything in it
func (s *WorldService) DeleteWorld(ctx context.Context, userID, worldID string) error {
	if err := s.store.DeleteWorld(ctx, userID, worldID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorldNotFound
		}
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "world_id": worldID}).Info("World deleted")
	return nil
}

// ExportWorld renders an owned world and its contents as an XML document
func (s *WorldService) ExportWorld(ctx context.Context, userID, worldID string) ([]byte, error) {
	detail, err := s.GetWorld(ctx, userID, worldID)
	if err != nil {
		return nil, err
	}
	out, err := export.WorldXML(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to export world: %w", err)
	}
	return out, nil
}

func (s *WorldService) findWorld(ctx context.Context, userID, worldID string) (*models.World, error) {
	world, err := s.store.FindWorld(ctx, userID, worldID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrWorldNotFound
	}
	if err != nil {
		return nil, err
	}
	return world, nil
}
