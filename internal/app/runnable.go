package app

import (
	"context"

	"github.com/goofcode/just-start-server/internal/shared/types"
)

// Runnable is the capability set every managed application kind implements.
// Lifecycle methods mutate the instance's status as a side effect; the
// registry only ever reads it.
type Runnable interface {
	// Init prepares internal state after construction and configuration
	// assignment.
	Init() error

	// Lifecycle transitions. Output produced by the underlying process is
	// appended to the given sink; the registry never inspects it.
	Deploy(ctx context.Context, sink LogSink) error
	Start(ctx context.Context, sink LogSink) error
	Stop(ctx context.Context, sink LogSink) error
	Debug(ctx context.Context, sink LogSink) error

	// Dispose releases resources. The handle must not be reused afterwards.
	Dispose() error

	// FindVersion discovers the installed or running version.
	FindVersion() (string, error)

	ID() string
	Name() string
	Type() types.Kind
	AppPath() string
	Status() types.Status
	ServicePort() int
	DebugSessionName() string

	Config() *types.AppConfig
	SetConfig(*types.AppConfig)
}

// SourceValidator is an optional capability: kinds that can check whether
// a path holds a valid installation of a given version implement it.
// Callers treat its absence as "always valid".
type SourceValidator interface {
	ValidateSource(version string) (bool, error)
}

// ValidateSource probes h for the SourceValidator capability.
func ValidateSource(h Runnable, version string) (bool, error) {
	if v, ok := h.(SourceValidator); ok {
		return v.ValidateSource(version)
	}
	return true, nil
}

// Factory constructs a not-yet-initialized handle bound to an id and the
// workspace location, carrying the kind's default configuration template.
type Factory func(id, workspace string) (Runnable, error)
