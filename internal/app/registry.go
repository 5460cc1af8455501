package app

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/id"
	"github.com/goofcode/just-start-server/internal/shared/types"
	"github.com/goofcode/just-start-server/internal/store"
)

// Registry owns the ordered cache of live application handles, unique by
// id. It orchestrates construction, reconciliation against the persisted
// store and lookup. Mutating operations are assumed to be externally
// serialized; the internal lock only protects the cache for concurrent
// readers on the control surface.
type Registry struct {
	mu        sync.RWMutex
	workspace string
	apps      []Runnable

	store     store.Accessor
	factories map[types.Kind]Factory
	ids       *id.Generator
	log       *logging.Logger
	obs       Observer
}

// Observer receives registry state changes for instrumentation. The
// monitoring package's collector satisfies it.
type Observer interface {
	RecordReconcile(pruned, loaded int, failed bool)
	SetAppsCached(total, running int)
}

// NewRegistry creates a registry over the given store and kind table.
func NewRegistry(st store.Accessor, factories map[types.Kind]Factory, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		store:     st,
		factories: factories,
		ids:       id.NewGenerator(),
		log:       log.Named("registry"),
	}
}

// SetObserver attaches an instrumentation sink. Call before serving.
func (r *Registry) SetObserver(obs Observer) {
	r.obs = obs
}

// Initialize sets the workspace location. It must be called before any
// CreateApplication call.
func (r *Registry) Initialize(workspace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workspace != "" && r.workspace != workspace {
		r.log.Warn("workspace location replaced",
			zap.String("old", r.workspace), zap.String("new", workspace))
	}
	r.workspace = workspace
}

// Workspace returns the workspace location, empty when uninitialized.
func (r *Registry) Workspace() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workspace
}

// CreateApplication constructs a new, not-yet-cached handle of the given
// kind, bound to the workspace location. When id is empty a fresh one is
// generated; callers needing deterministic ids supply their own.
func (r *Registry) CreateApplication(kind types.Kind, appID string) (Runnable, error) {
	ws := r.Workspace()
	if ws == "" {
		return nil, apperr.New(apperr.NotFoundWorkspace, "")
	}
	if appID == "" {
		appID = r.ids.Instance()
	}

	factory, ok := r.factories[kind]
	if !ok {
		return nil, apperr.New(apperr.NoValidAppType, string(kind))
	}
	return factory(appID, ws)
}

// LoadFromConfigurations reconciles the persisted configuration records
// with the cache. With exactly set the cache is cleared first (full
// replace); the default is merge mode.
//
// The pipeline order is load-bearing: invalid records are pruned before
// selection so they are never merged, and already-cached ids are excluded
// from construction so live instances are never re-initialized. Per-record
// failures do not abort the batch; they are joined and returned after the
// surviving records have been committed.
func (r *Registry) LoadFromConfigurations(exactly bool) error {
	file, err := r.store.ReadConfigFile()
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	if exactly {
		r.mu.Lock()
		r.apps = nil
		r.mu.Unlock()
	}

	var errs []error

	// Prune pass: records without an app path are invalid; detach them
	// from the store so a partially written file heals itself.
	valid := make([]types.AppConfig, 0, len(file.Apps))
	pruned := 0
	for _, rec := range file.Apps {
		if rec.AppPath == "" {
			pruned++
			r.log.Warn("pruning invalid record", zap.String("app_id", rec.ID))
			if err := r.store.DetachConfigApplication(rec.ID); err != nil {
				errs = append(errs, fmt.Errorf("detaching record %s: %w", rec.ID, err))
			}
			continue
		}
		valid = append(valid, rec)
	}

	// Selection pass: already-cached instances stay untouched.
	cached := r.cachedIDs()

	var loaded []Runnable
	for _, rec := range valid {
		if cached[rec.ID] {
			continue
		}

		handle, err := r.CreateApplication(rec.Type, rec.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			continue
		}

		// The freshly constructed handle carries the kind's default
		// property template; persisted changeable values win over it,
		// everything else follows the current template.
		pure := handle.Config().Properties
		cfg := rec.Clone()
		cfg.Properties = mergeProperties(pure, rec.Properties)
		handle.SetConfig(cfg)

		if err := handle.Init(); err != nil {
			errs = append(errs, fmt.Errorf("initializing %s: %w", rec.ID, err))
			continue
		}
		loaded = append(loaded, handle)
	}

	// Write-back keeps the store normalized after pruning and merging.
	if len(loaded) > 0 {
		if err := r.Persist(loaded...); err != nil {
			errs = append(errs, fmt.Errorf("writing back configuration: %w", err))
		}
	}

	r.SetAppsToContainer(loaded...)

	r.log.Info("reconciled configurations",
		zap.Int("pruned", pruned),
		zap.Int("loaded", len(loaded)),
		zap.Int("cached", len(r.GetApplications())),
		zap.Int("errors", len(errs)),
		zap.Bool("exactly", exactly))

	if r.obs != nil {
		r.obs.RecordReconcile(pruned, len(loaded), len(errs) > 0)
	}
	r.observeCache()

	return errors.Join(errs...)
}

// observeCache pushes the cache gauges to the observer.
func (r *Registry) observeCache() {
	if r.obs == nil {
		return
	}
	stats := r.Stats()
	r.obs.SetAppsCached(stats.TotalApps, stats.RunningApps)
}

// SetAppsToContainer upserts handles into the cache. A handle whose id is
// already cached only replaces the cached entry's configuration, so an
// already-running instance absorbs configuration edits without being
// re-initialized. New ids are appended. Returns the full cache.
func (r *Registry) SetAppsToContainer(handles ...Runnable) []Runnable {
	r.mu.Lock()
	for _, h := range handles {
		replaced := false
		for _, existing := range r.apps {
			if existing.ID() == h.ID() {
				existing.SetConfig(h.Config().Clone())
				replaced = true
				break
			}
		}
		if !replaced {
			r.apps = append(r.apps, h)
		}
	}
	out := make([]Runnable, len(r.apps))
	copy(out, r.apps)
	r.mu.Unlock()

	r.observeCache()
	return out
}

// Persist writes the handles' configuration records through to the store.
func (r *Registry) Persist(handles ...Runnable) error {
	configs := make([]types.AppConfig, 0, len(handles))
	for _, h := range handles {
		configs = append(configs, *h.Config().Clone())
	}
	return r.store.WriteConfigApplications(configs)
}

// GetApplication looks up a cached handle by id.
func (r *Registry) GetApplication(appID string) (Runnable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.apps {
		if h.ID() == appID {
			return h, true
		}
	}
	return nil, false
}

// GetApplications returns a snapshot of all cached handles in order.
func (r *Registry) GetApplications() []Runnable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Runnable, len(r.apps))
	copy(out, r.apps)
	return out
}

// Remove drops a handle from the cache and detaches its persisted record.
// Callers dispose the handle first; the registry never evicts silently.
func (r *Registry) Remove(appID string) error {
	r.mu.Lock()
	kept := r.apps[:0]
	found := false
	for _, h := range r.apps {
		if h.ID() == appID {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	r.apps = kept
	r.mu.Unlock()

	if !found {
		return apperr.New(apperr.NotFound, appID)
	}
	r.observeCache()
	return r.store.DetachConfigApplication(appID)
}

// Reset clears the cache. Used for workspace switches and test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.apps = nil
	r.mu.Unlock()
}

// Stats summarizes the cache for the control surface.
func (r *Registry) Stats() types.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := types.Stats{ByKind: make(map[string]int)}
	for _, h := range r.apps {
		stats.TotalApps++
		stats.ByKind[string(h.Type())]++
		switch h.Status() {
		case types.StatusRunning:
			stats.RunningApps++
		case types.StatusStop:
			stats.StoppedApps++
		}
	}
	return stats
}

func (r *Registry) cachedIDs() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[string]bool, len(r.apps))
	for _, h := range r.apps {
		ids[h.ID()] = true
	}
	return ids
}

// mergeProperties merges a persisted property list onto a kind's pure
// template. The template dictates both the key set and the order: a
// template key takes the persisted value only when the persisted property
// is marked changeable, and persisted keys missing from the template are
// dropped.
func mergeProperties(pure, persisted []types.Property) []types.Property {
	out := make([]types.Property, 0, len(pure))
	for _, p := range pure {
		merged := p
		for _, q := range persisted {
			if q.Key == p.Key && q.Changeable {
				merged = q
				break
			}
		}
		out = append(out, merged)
	}
	return out
}
