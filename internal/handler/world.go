package handler

import (
	"errors"
	"net/http"

	"github.com/Dan9191/world-service/internal/middleware"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/gorilla/mux"
)

var errNoIdentity = errors.New("no identity in request context")

type createWorldRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// userID returns the authenticated caller. The auth middleware guarantees it
// on world routes, so a missing identity is a wiring bug.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeServiceError(w, r, errNoIdentity)
		return "", false
	}
	return identity.UserID, true
}

// ListWorlds returns the caller's worlds
func (h *Handler) ListWorlds(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	worlds, err := h.worlds.ListWorlds(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worlds)
}

// CreateWorld creates a world owned by the caller
func (h *Handler) CreateWorld(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createWorldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var name string
	if req.Name != nil {
		name = *req.Name
	}

	world, err := h.worlds.CreateWorld(r.Context(), userID, name, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, world)
}

// GetWorld returns one world with its characters, locations and events
func (h *Handler) GetWorld(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	world, err := h.worlds.GetWorld(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, world)
}

// UpdateWorld applies a partial update
func (h *Handler) UpdateWorld(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var patch models.WorldPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	world, err := h.worlds.UpdateWorld(r.Context(), userID, mux.Vars(r)["id"], patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, world)
}

// DeleteWorld removes a world and its contents
func (h *Handler) DeleteWorld(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.worlds.DeleteWorld(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "World deleted successfully"})
}

// ExportWorld returns the world as an XML document
func (h *Handler) ExportWorld(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	doc, err := h.worlds.ExportWorld(r.Context(), userID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="world-`+id+`.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
