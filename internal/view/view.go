// Package view holds the local mirror of a remote todo collection.
//
// A View is loaded once from the remote collection and then edited in
// memory. Add and Delete are applied locally only after the remote call
// succeeds; ToggleComplete never leaves the process, so a later Load
// resets it to whatever the server reports.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// DefaultLimit is how many items Load asks for.
const DefaultLimit = 10

// ErrEmptyTitle is returned by Add for blank titles. No request is made.
var ErrEmptyTitle = errors.New("title cannot be empty")

// Collection is the remote side of the view.
type Collection interface {
	List(ctx context.Context, limit int) ([]model.Item, error)
	Create(ctx context.Context, title string, completed bool) (model.Item, error)
	Delete(ctx context.Context, id int) error
}

// Phase is where the view is in its load lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

type Options struct {
	Limit int
	// RefetchOnMutate re-reads the collection after a successful Add or
	// Delete. Local state is only replaced if the remote data changed.
	RefetchOnMutate bool
	Logger          *log.Logger
}

// View is safe for concurrent use. Overlapping calls are applied in the
// order they complete.
type View struct {
	remote Collection
	opt    Options
	log    *log.Logger

	mu       sync.Mutex
	phase    Phase
	items    []model.Item
	snapshot []model.Item
}

func New(remote Collection, opt Options) *View {
	if opt.Limit <= 0 {
		opt.Limit = DefaultLimit
	}
	lg := opt.Logger
	if lg == nil {
		lg = log.New(io.Discard)
	}
	return &View{
		remote: remote,
		opt:    opt,
		log:    lg,
		items:  []model.Item{},
	}
}

// Items returns a copy of the local collection in display order.
func (v *View) Items() []model.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return model.Clone(v.items)
}

func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Loaded reports whether at least one Load has succeeded.
func (v *View) Loaded() bool { return v.Phase() == PhaseLoaded }

// Load replaces the local collection with the first Limit remote items.
// On error the local collection is left as it was.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	prev := v.phase
	if prev != PhaseLoaded {
		v.phase = PhaseLoading
	}
	v.mu.Unlock()

	items, err := v.remote.List(ctx, v.opt.Limit)
	if err != nil {
		v.mu.Lock()
		if v.phase == PhaseLoading {
			v.phase = prev
		}
		v.mu.Unlock()
		v.log.Error("load failed", "err", err)
		return fmt.Errorf("load: %w", err)
	}

	v.mu.Lock()
	v.items = model.Clone(items)
	v.snapshot = model.Clone(items)
	v.phase = PhaseLoaded
	v.mu.Unlock()

	v.log.Debug("loaded", "count", len(items))
	return nil
}

// Refresh refetches the collection and replaces local state only when the
// remote result differs from the last one seen, so local edits survive a
// refetch of unchanged data.
func (v *View) Refresh(ctx context.Context) (bool, error) {
	items, err := v.remote.List(ctx, v.opt.Limit)
	if err != nil {
		return false, fmt.Errorf("refresh: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == PhaseLoaded && model.Equal(items, v.snapshot) {
		return false, nil
	}
	v.items = model.Clone(items)
	v.snapshot = model.Clone(items)
	v.phase = PhaseLoaded
	return true, nil
}

// Add creates an item remotely and prepends the server's copy.
func (v *View) Add(ctx context.Context, title string) (model.Item, error) {
	if strings.TrimSpace(title) == "" {
		return model.Item{}, ErrEmptyTitle
	}

	it, err := v.remote.Create(ctx, title, false)
	if err != nil {
		v.log.Error("add failed", "title", title, "err", err)
		return model.Item{}, fmt.Errorf("add: %w", err)
	}

	v.mu.Lock()
	v.items = append([]model.Item{it}, v.items...)
	v.mu.Unlock()

	v.log.Info("added", "id", it.ID, "title", it.Title)
	v.afterMutation(ctx)
	return it, nil
}

// Delete removes the item remotely, then drops every local item with id.
func (v *View) Delete(ctx context.Context, id int) error {
	if err := v.remote.Delete(ctx, id); err != nil {
		v.log.Error("delete failed", "id", id, "err", err)
		return fmt.Errorf("delete %d: %w", id, err)
	}

	v.mu.Lock()
	kept := make([]model.Item, 0, len(v.items))
	for _, it := range v.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	v.items = kept
	v.mu.Unlock()

	v.log.Info("deleted", "id", id)
	v.afterMutation(ctx)
	return nil
}

// ToggleComplete flips the completed flag locally. It reports whether any
// item matched id.
func (v *View) ToggleComplete(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	found := false
	for i := range v.items {
		if v.items[i].ID == id {
			v.items[i].Completed = !v.items[i].Completed
			found = true
		}
	}
	return found
}

func (v *View) afterMutation(ctx context.Context) {
	if !v.opt.RefetchOnMutate {
		return
	}
	if _, err := v.Refresh(ctx); err != nil {
		v.log.Warn("refetch after mutation failed", "err", err)
	}
}
