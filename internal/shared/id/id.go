// Package id provides centralized ID generation for managed instances.
//
// Instance ids follow the `App<unix-millis>` contract so ids sort by
// creation time and stay stable across restarts once persisted. Callers
// needing deterministic ids supply their own instead of generating one.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InstancePrefix prefixes every generated application instance id.
const InstancePrefix = "App"

// Generator produces instance ids. The clock is injectable for tests.
type Generator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewGenerator creates a generator backed by the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock creates a generator with a custom clock.
// Useful for deterministic tests.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// Instance generates a new instance id. Two calls within the same
// millisecond bump the timestamp so ids stay unique per process.
func (g *Generator) Instance() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return InstancePrefix + strconv.FormatInt(ms, 10)
}

// NewInstanceID generates an instance id from the default generator.
func NewInstanceID() string {
	return Default().Instance()
}

// NewDebugSessionName generates a unique name for a debug session
// attached to the given instance.
func NewDebugSessionName(instanceID string) string {
	return fmt.Sprintf("debug-%s-%s", instanceID, uuid.New().String()[:8])
}

// NewRequestID generates a short unique id for request tracing.
func NewRequestID() string {
	return uuid.New().String()[:13]
}

// IsInstanceID reports whether s matches the generated id shape.
func IsInstanceID(s string) bool {
	rest, ok := strings.CutPrefix(s, InstancePrefix)
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.ParseInt(rest, 10, 64)
	return err == nil
}
