package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNameRequired is returned by Dashboard.Create before any request is made
	ErrNameRequired = errors.New("world name is required")
	// ErrSubmitting is returned while a previous Create is still in flight
	ErrSubmitting = errors.New("create already in progress")
	// ErrNotReady is returned by Create until the initial Load has finished
	ErrNotReady = errors.New("worlds are still loading")
)

// Phase is the dashboard's loading state
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	}
	return "unknown"
}

// WorldAPI is the part of Client the dashboard needs
type WorldAPI interface {
	ListWorlds(ctx context.Context) ([]models.World, error)
	CreateWorld(ctx context.Context, name string, description *string) (*models.World, error)
	DeleteWorld(ctx context.Context, id string) error
}

// Draft holds the create-world form fields
type Draft struct {
	Name        string
	Description string
}

// View is a snapshot of the dashboard for rendering
type View struct {
	Phase           Phase
	Worlds          []models.World
	ShowCreateModal bool
	Draft           Draft
}

// Dashboard keeps the world list screen in sync with the API.
// Failed requests are logged and leave the visible list untouched.
type Dashboard struct {
	mu         sync.Mutex
	api        WorldAPI
	log        *logrus.Logger
	phase      Phase
	worlds     []models.World
	showCreate bool
	draft      Draft
}

// NewDashboard starts in the loading phase
func NewDashboard(api WorldAPI, log *logrus.Logger) *Dashboard {
	return &Dashboard{api: api, log: log, phase: PhaseLoading, worlds: []models.World{}}
}

// View returns a copy of the current state
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	worlds := make([]models.World, len(d.worlds))
	copy(worlds, d.worlds)
	return View{Phase: d.phase, Worlds: worlds, ShowCreateModal: d.showCreate, Draft: d.draft}
}

// Load fetches the world list; the dashboard becomes ready even on failure
func (d *Dashboard) Load(ctx context.Context) error {
	worlds, err := d.api.ListWorlds(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = PhaseReady
	if err != nil {
		d.log.WithError(err).Error("Error fetching worlds")
		return err
	}
	if worlds == nil {
		worlds = []models.World{}
	}
	d.worlds = worlds
	return nil
}

// OpenCreate shows the create modal
func (d *Dashboard) OpenCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.showCreate = true
}

// CancelCreate hides the create modal and clears the form
func (d *Dashboard) CancelCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.showCreate = false
	d.draft = Draft{}
}

// SetDraft updates the create form
func (d *Dashboard) SetDraft(draft Draft) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft = draft
}

// Create submits the draft. On success the new world is prepended, the form
// is cleared and the modal closes; on failure the modal stays open.
func (d *Dashboard) Create(ctx context.Context) (*models.World, error) {
	d.mu.Lock()
	if strings.TrimSpace(d.draft.Name) == "" {
		d.mu.Unlock()
		return nil, ErrNameRequired
	}
	switch d.phase {
	case PhaseLoading:
		d.mu.Unlock()
		return nil, ErrNotReady
	case PhaseSubmitting:
		d.mu.Unlock()
		return nil, ErrSubmitting
	}
	draft := d.draft
	d.phase = PhaseSubmitting
	d.mu.Unlock()

	description := draft.Description
	world, err := d.api.CreateWorld(ctx, draft.Name, &description)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = PhaseReady
	if err != nil {
		d.log.WithError(err).Error("Error creating world")
		return nil, err
	}
	d.worlds = append([]models.World{*world}, d.worlds...)
	d.draft = Draft{}
	d.showCreate = false
	return world, nil
}

// Delete removes a world after confirm returns true. The world leaves the
// visible list only once the server has deleted it.
func (d *Dashboard) Delete(ctx context.Context, id string, confirm func() bool) (bool, error) {
	if confirm != nil && !confirm() {
		return false, nil
	}

	if err := d.api.DeleteWorld(ctx, id); err != nil {
		d.log.WithError(err).WithField("world_id", id).Error("Error deleting world")
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	kept := make([]models.World, 0, len(d.worlds))
	for _, w := range d.worlds {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	d.worlds = kept
	return true, nil
}
