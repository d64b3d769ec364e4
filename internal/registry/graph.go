package registry

import (
	"github.com/xraph/anchor/errors"
)

// orderedSet is a string set that preserves insertion order. Destruction
// walks dependency and containment sets in the order edges were registered,
// which a bare map cannot guarantee.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{
		index: make(map[string]struct{}),
	}
}

// add inserts the value and reports whether it was not already present.
func (s *orderedSet) add(value string) bool {
	if _, ok := s.index[value]; ok {
		return false
	}
	s.index[value] = struct{}{}
	s.items = append(s.items, value)
	return true
}

// remove deletes the value and reports whether it was present.
func (s *orderedSet) remove(value string) bool {
	if _, ok := s.index[value]; !ok {
		return false
	}
	delete(s.index, value)
	for i, item := range s.items {
		if item == value {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *orderedSet) contains(value string) bool {
	_, ok := s.index[value]
	return ok
}

// values returns a copy of the set in insertion order.
func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

func (s *orderedSet) len() int {
	return len(s.items)
}

// RegisterDependent records that dependentName depends on name, i.e. that
// dependentName must be destroyed before name. The name is canonicalized
// before insertion; both adjacency maps are updated under their own locks,
// acquired sequentially, never nested.
func (r *SingletonRegistry) RegisterDependent(name, dependentName string) error {
	if name == "" {
		return errors.ErrInvalidArgument("name", "must not be empty")
	}
	if dependentName == "" {
		return errors.ErrInvalidArgument("dependentName", "must not be empty")
	}
	canonical := r.CanonicalName(name)

	r.dependentsMu.Lock()
	dependents, ok := r.dependents[canonical]
	if !ok {
		dependents = newOrderedSet()
		r.dependents[canonical] = dependents
	}
	added := dependents.add(dependentName)
	r.dependentsMu.Unlock()
	if !added {
		return nil
	}

	r.dependenciesMu.Lock()
	dependencies, ok := r.dependencies[dependentName]
	if !ok {
		dependencies = newOrderedSet()
		r.dependencies[dependentName] = dependencies
	}
	dependencies.add(canonical)
	r.dependenciesMu.Unlock()
	return nil
}

// RegisterContained records that containedName is structurally contained in
// containingName (e.g. an inner instance of an outer one). Containment
// implies a dependency edge: the contained instance is destroyed before its
// container is fully gone.
func (r *SingletonRegistry) RegisterContained(containedName, containingName string) error {
	if containedName == "" {
		return errors.ErrInvalidArgument("containedName", "must not be empty")
	}
	if containingName == "" {
		return errors.ErrInvalidArgument("containingName", "must not be empty")
	}

	r.containedMu.Lock()
	contained, ok := r.contained[containingName]
	if !ok {
		contained = newOrderedSet()
		r.contained[containingName] = contained
	}
	added := contained.add(containedName)
	r.containedMu.Unlock()
	if !added {
		return nil
	}

	return r.RegisterDependent(containedName, containingName)
}

// IsDependent reports whether dependentName has been registered as depending
// on name, directly or transitively. The walk carries a visited set: unlike
// the alias map, the dependency graph is not guaranteed acyclic.
func (r *SingletonRegistry) IsDependent(name, dependentName string) bool {
	r.dependentsMu.Lock()
	defer r.dependentsMu.Unlock()

	visited := make(map[string]struct{})
	stack := []string{name}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		canonical := r.CanonicalName(current)
		dependents, ok := r.dependents[canonical]
		if !ok {
			continue
		}
		if dependents.contains(dependentName) {
			return true
		}
		stack = append(stack, dependents.values()...)
	}
	return false
}

// HasDependents reports whether any dependent has been registered for the
// given name.
func (r *SingletonRegistry) HasDependents(name string) bool {
	r.dependentsMu.Lock()
	defer r.dependentsMu.Unlock()
	dependents, ok := r.dependents[name]
	return ok && dependents.len() > 0
}

// DependentNames returns the names of all instances which depend on the
// given name, in registration order.
func (r *SingletonRegistry) DependentNames(name string) []string {
	r.dependentsMu.Lock()
	defer r.dependentsMu.Unlock()
	dependents, ok := r.dependents[name]
	if !ok {
		return []string{}
	}
	return dependents.values()
}

// DependencyNames returns the names of all instances the given name depends
// on, in registration order.
func (r *SingletonRegistry) DependencyNames(name string) []string {
	r.dependenciesMu.Lock()
	defer r.dependenciesMu.Unlock()
	dependencies, ok := r.dependencies[name]
	if !ok {
		return []string{}
	}
	return dependencies.values()
}
