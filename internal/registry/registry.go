package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/martinsuchenak/toposeed/internal/model"
)

// ErrNotFound is returned when a topology name is not registered
var ErrNotFound = errors.New("topology not registered")

// Assembler builds the complete graph of one topology from a seed
type Assembler func(seed int64) (*model.TopologyGraph, error)

// Topology is one registered name/assembler pair
type Topology struct {
	Name        string
	Description string
	DefaultSeed int64
	Assemble    Assembler
}

// Registry maps topology names to assemblers
type Registry struct {
	mu         sync.RWMutex
	topologies map[string]Topology
}

var (
	registryInstance *Registry
	registryOnce     sync.Once
)

// GetRegistry returns the process-wide registry instance
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		registryInstance = New()
	})
	return registryInstance
}

// New returns an empty registry
func New() *Registry {
	return &Registry{
		topologies: make(map[string]Topology),
	}
}

// Register adds a topology. Names are unique.
func (r *Registry) Register(t Topology) error {
	if t.Name == "" {
		return errors.New("topology name is required")
	}
	if t.Assemble == nil {
		return fmt.Errorf("topology %s has no assembler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.topologies[t.Name]; exists {
		return fmt.Errorf("topology %s already registered", t.Name)
	}
	r.topologies[t.Name] = t
	return nil
}

// Get returns a topology by name
func (r *Registry) Get(name string) (Topology, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, exists := r.topologies[name]
	return t, exists
}

// Lookup is Get with an ErrNotFound error for unknown names
func (r *Registry) Lookup(name string) (Topology, error) {
	t, ok := r.Get(name)
	if !ok {
		return Topology{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Names returns every registered name in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.topologies))
	for name := range r.topologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered topology ordered by name
func (r *Registry) All() []Topology {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Topology, 0, len(names))
	for _, name := range names {
		if t, ok := r.topologies[name]; ok {
			all = append(all, t)
		}
	}
	return all
}
