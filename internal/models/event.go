package models

import "time"

// Event represents something that happened in a world's history
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        *string   `json:"date"` // Free-form in-world date
	Description *string   `json:"description"`
	WorldID     string    `json:"worldId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
