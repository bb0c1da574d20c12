package plugin

import (
	"fmt"
	"slices"
	"sync"

	"firestige.xyz/thinkgear/internal/core"
)

// ReporterFactory creates a fresh, uninitialized reporter.
type ReporterFactory func() Reporter

type registry[F any] struct {
	mu        sync.RWMutex
	kind      string
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, factories: make(map[string]F)}
}

func (r *registry[F]) register(name string, f F, isNil bool) {
	if name == "" {
		panic(fmt.Sprintf("plugin: empty %s name", r.kind))
	}
	if isNil {
		panic(fmt.Sprintf("plugin: nil %s factory for %q", r.kind, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("plugin: %s %q registered twice", r.kind, name))
	}
	r.factories[name] = f
}

func (r *registry[F]) get(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

func (r *registry[F]) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var reporterReg = newRegistry[ReporterFactory]("reporter")

// RegisterReporter makes a reporter type available by name. It panics on an
// empty name, a nil factory or a duplicate name.
func RegisterReporter(name string, f ReporterFactory) {
	reporterReg.register(name, f, f == nil)
}

// GetReporterFactory returns the factory registered under name.
func GetReporterFactory(name string) (ReporterFactory, error) {
	f, ok := reporterReg.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", core.ErrUnknownReporter, name, reporterReg.list())
	}
	return f, nil
}

// ListReporters returns the registered reporter names, sorted.
func ListReporters() []string {
	return reporterReg.list()
}

// NewReporter creates a reporter by type and initializes it with options.
func NewReporter(name string, options map[string]any) (Reporter, error) {
	f, err := GetReporterFactory(name)
	if err != nil {
		return nil, err
	}
	r := f()
	if err := r.Init(options); err != nil {
		return nil, fmt.Errorf("init %s reporter: %w", name, err)
	}
	return r, nil
}
