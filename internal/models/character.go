package models

import "time"

// Character represents a person or creature living in a world
type Character struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        *string   `json:"role"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	WorldID     string    `json:"worldId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
