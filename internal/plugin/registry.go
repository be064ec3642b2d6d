package plugin

import (
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Factory builds a worker instance from constructor options.
type Factory func(c *Context, opts domain.Options) (Worker, error)

// Class is a concrete implementation of a role, known by its export name.
type Class struct {
	Role        domain.Role
	Name        string
	Description string

	// Abstract classes describe a shared base and are never registered.
	Abstract bool

	New Factory
}

// Registry groups classes by role, in registration order.
type Registry struct {
	mu      sync.RWMutex
	classes map[domain.Role][]Class
	index   map[domain.Role]map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[domain.Role][]Class),
		index:   make(map[domain.Role]map[string]int),
	}
}

// Default holds the classes registered by init functions.
var Default = NewRegistry()

// Register adds c to the default registry. Worker packages call it from
// init. It panics if c is invalid or already registered.
func Register(c Class) {
	if err := Default.Register(c); err != nil {
		panic("plugin: " + err.Error())
	}
}

// Register adds a concrete class to its role's collection.
// Abstract classes are ignored.
func (r *Registry) Register(c Class) error {
	if c.Abstract {
		return nil
	}
	if c.Role == "" {
		return fmt.Errorf("class %q has no role", c.Name)
	}
	if c.Name == "" {
		return fmt.Errorf("%s class has no name", c.Role)
	}
	if c.New == nil {
		return fmt.Errorf("%s class %q has no constructor", c.Role, c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok := r.index[c.Role]
	if !ok {
		names = make(map[string]int)
		r.index[c.Role] = names
	}
	if _, dup := names[c.Name]; dup {
		return fmt.Errorf("%s class %q registered twice", c.Role, c.Name)
	}

	names[c.Name] = len(r.classes[c.Role])
	r.classes[c.Role] = append(r.classes[c.Role], c)
	return nil
}

// Lookup returns the class exported as name in role.
func (r *Registry) Lookup(role domain.Role, name string) (Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[role][name]
	if !ok {
		return Class{}, &domain.NotFoundError{Role: role, Name: name}
	}
	return r.classes[role][i], nil
}

// Classes returns the classes of role in registration order.
func (r *Registry) Classes(role domain.Role) []Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Class(nil), r.classes[role]...)
}

// Names returns the export names of role in registration order.
func (r *Registry) Names(role domain.Role) []string {
	classes := r.Classes(role)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}

// Clone returns an independent copy, so callers can add classes without
// touching the original.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewRegistry()
	for role, classes := range r.classes {
		out.classes[role] = append([]Class(nil), classes...)
		names := make(map[string]int, len(classes))
		for name, i := range r.index[role] {
			names[name] = i
		}
		out.index[role] = names
	}
	return out
}
