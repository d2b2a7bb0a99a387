package watch

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cespare/xxhash/v2"
)

// Component interface - all watch panels implement this
type Component interface {
	Update(msg tea.Msg, snap Snapshot) (Component, tea.Cmd)
	View(width, height int) string

	ID() string
	Title() string
}

// BaseComponent provides common functionality for all panels.
// Includes hash-based caching to prevent unnecessary re-renders.
type BaseComponent struct {
	lastHash uint64
	cached   string
}

// cacheKey generates a hash key including content and dimensions
func (c *BaseComponent) cacheKey(content string, w, h int) uint64 {
	// Include dimensions in hash to invalidate cache on resize
	return xxhash.Sum64String(fmt.Sprintf("%dx%d|%s", w, h, content))
}

// CheckCacheWithSize checks if content or size changed using xxhash.
// Returns true if cache hit (content and dimensions unchanged).
func (c *BaseComponent) CheckCacheWithSize(content string, w, h int) bool {
	h64 := c.cacheKey(content, w, h)
	if h64 == c.lastHash && c.cached != "" {
		return true
	}
	c.lastHash = h64
	return false
}

// UpdateCache stores rendered output in cache
func (c *BaseComponent) UpdateCache(rendered string) {
	c.cached = rendered
}

// GetCached returns cached output
func (c *BaseComponent) GetCached() string {
	return c.cached
}

// ComponentRegistry manages the watch panels in a deterministic order.
type ComponentRegistry struct {
	order      []string
	components map[string]Component
}

// NewComponentRegistry creates a new registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		order:      make([]string, 0),
		components: make(map[string]Component),
	}
}

// Register adds a component to the registry
func (r *ComponentRegistry) Register(comp Component) {
	id := comp.ID()
	if _, exists := r.components[id]; !exists {
		r.order = append(r.order, id)
	}
	r.components[id] = comp
}

// Get retrieves a component by ID
func (r *ComponentRegistry) Get(id string) Component {
	return r.components[id]
}

// All returns all registered components in registration order
func (r *ComponentRegistry) All() []Component {
	comps := make([]Component, 0, len(r.order))
	for _, id := range r.order {
		comps = append(comps, r.components[id])
	}
	return comps
}

// UpdateAll updates all components with a new snapshot in registration order
func (r *ComponentRegistry) UpdateAll(msg tea.Msg, snap Snapshot) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.order))
	for _, id := range r.order {
		comp := r.components[id]
		updated, cmd := comp.Update(msg, snap)
		r.components[id] = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
