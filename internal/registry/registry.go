// Package registry keeps the directory of apps that are live in this process.
package registry

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// Registry manages app registration. Entries are stored and returned by
// value, so callers never share state with the registry.
type Registry struct {
	mu   sync.RWMutex
	apps map[string]coretypes.AppInfo
}

// NewRegistry creates a new registry with an empty app map.
func NewRegistry() *Registry {
	return &Registry{
		apps: make(map[string]coretypes.AppInfo),
	}
}

// Register adds an app, returning a *coretypes.DuplicateAppError if the id is
// already taken. A failed call leaves the registry unchanged.
func (r *Registry) Register(app coretypes.AppInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[app.ID]; exists {
		return &coretypes.DuplicateAppError{ID: app.ID}
	}

	r.apps[app.ID] = app
	logger.Debug("App registered", "app", app.ID, "version", app.Version)
	return nil
}

// Get returns a copy of the app registered under id.
func (r *Registry) Get(id string) (coretypes.AppInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, exists := r.apps[id]
	return app, exists
}

// List returns copies of all registered apps in no particular order.
func (r *Registry) List() []coretypes.AppInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]coretypes.AppInfo, 0, len(r.apps))
	for _, app := range r.apps {
		result = append(result, app)
	}
	return result
}

// Unregister removes the app and returns its prior entry. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) (coretypes.AppInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, exists := r.apps[id]
	if !exists {
		return coretypes.AppInfo{}, false
	}
	delete(r.apps, id)
	logger.Debug("App unregistered", "app", id)
	return app, true
}

// Require returns the app registered under id if its version satisfies the
// semver constraint (e.g. ">= 0.2, < 1"). An empty constraint accepts any version.
func (r *Registry) Require(id, constraint string) (coretypes.AppInfo, error) {
	app, ok := r.Get(id)
	if !ok {
		return coretypes.AppInfo{}, fmt.Errorf("app '%s': %w", id, coretypes.ErrNotFound)
	}
	if constraint == "" {
		return app, nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return coretypes.AppInfo{}, fmt.Errorf("invalid version constraint %q: %w", constraint, coretypes.ErrValidation)
	}
	v, err := semver.NewVersion(app.Version)
	if err != nil {
		return coretypes.AppInfo{}, fmt.Errorf("app '%s' has invalid version %q: %w", id, app.Version, coretypes.ErrValidation)
	}
	if !c.Check(v) {
		return coretypes.AppInfo{}, fmt.Errorf("app '%s' version %s does not satisfy %s: %w", id, app.Version, constraint, coretypes.ErrValidation)
	}
	return app, nil
}
