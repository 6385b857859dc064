package models

import "time"

// World is a fictional-universe container owned by exactly one user
type World struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorldDetail is a world together with its nested collections.
// The collections are always encoded as arrays, never null.
type WorldDetail struct {
	World
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations"`
	Events     []Event     `json:"events"`
}

// WorldPatch carries a partial update. A nil field was not provided.
type WorldPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// Apply overwrites the provided fields of w. An empty name is ignored.
func (p WorldPatch) Apply(w *World) {
	if p.Name != nil && *p.Name != "" {
		w.Name = *p.Name
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.IsPublic != nil {
		w.IsPublic = *p.IsPublic
	}
}
