package app

import (
	"strconv"
	"sync"

	"github.com/goofcode/just-start-server/internal/shared/types"
)

// Base carries the bookkeeping every kind shares: the configuration record,
// the workspace binding, the status and the debug session name. Kinds embed
// it and keep the lifecycle mechanics to themselves.
type Base struct {
	mu        sync.RWMutex
	name      string
	workspace string
	status    types.Status
	debugName string
	config    *types.AppConfig
}

// NewBase creates the shared bookkeeping for a handle. cfg is owned by the
// handle from here on. Kinds embed the returned *Base.
func NewBase(name, workspace string, cfg *types.AppConfig) *Base {
	return &Base{
		name:      name,
		workspace: workspace,
		status:    types.StatusStop,
		config:    cfg,
	}
}

func (b *Base) ID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.ID
}

func (b *Base) Name() string { return b.name }

func (b *Base) Type() types.Kind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Type
}

func (b *Base) AppPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.AppPath
}

// Workspace returns the workspace location the handle was bound to at
// construction.
func (b *Base) Workspace() string { return b.workspace }

func (b *Base) Status() types.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus is called by the owning kind as a side effect of lifecycle
// operations. The registry never writes status.
func (b *Base) SetStatus(s types.Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// ServicePort parses the port property; 0 when unset or malformed.
func (b *Base) ServicePort() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.config.Property(types.PropPort); ok {
		if port, err := strconv.Atoi(p.Value); err == nil {
			return port
		}
	}
	return 0
}

func (b *Base) DebugSessionName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.debugName
}

// SetDebugSessionName records the name of the active debug session.
func (b *Base) SetDebugSessionName(name string) {
	b.mu.Lock()
	b.debugName = name
	b.mu.Unlock()
}

func (b *Base) Config() *types.AppConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// SetConfig assigns a new configuration record to the handle. The record's
// id and kind are part of the handle's identity and survive reassignment.
func (b *Base) SetConfig(cfg *types.AppConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cfg == nil {
		return
	}
	cfg.ID = b.config.ID
	cfg.Type = b.config.Type
	b.config = cfg
}
