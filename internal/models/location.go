package models

import "time"

// Location represents a place in a world. ParentID links it to an enclosing location.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        *string   `json:"type"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	ParentID    *string   `json:"parentId"`
	WorldID     string    `json:"worldId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
