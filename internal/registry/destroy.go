package registry

import (
	"fmt"

	"github.com/xraph/anchor/errors"
	"github.com/xraph/anchor/logger"
)

// Disposable is a teardown capability associated with a name. Destroy errors
// are reported through the logger and never propagated: teardown is
// total-effort, not fail-fast.
type Disposable interface {
	Destroy() error
}

// DisposeFunc adapts a plain function to the Disposable interface.
type DisposeFunc func() error

func (f DisposeFunc) Destroy() error {
	return f()
}

// RegisterDisposable associates a teardown capability with the given name.
// Disposables are destroyed in reverse registration order; re-registering a
// name replaces the capability but keeps its original position.
func (r *SingletonRegistry) RegisterDisposable(name string, disposable Disposable) error {
	if name == "" {
		return errors.ErrInvalidArgument("name", "must not be empty")
	}
	if disposable == nil {
		return errors.ErrInvalidArgument("disposable", "must not be nil")
	}

	r.disposablesMu.Lock()
	defer r.disposablesMu.Unlock()
	if _, ok := r.disposables[name]; !ok {
		r.disposablesOrder = append(r.disposablesOrder, name)
	}
	r.disposables[name] = disposable
	return nil
}

// DestroySingletons destroys every disposable-registered singleton in
// reverse registration order, then clears the dependency, containment and
// cache state. While it runs, GetOrCreate is rejected.
func (r *SingletonRegistry) DestroySingletons() {
	r.logger.Debug("destroying singletons")

	r.mu.Lock()
	r.destroying = true
	r.mu.Unlock()

	r.disposablesMu.Lock()
	names := make([]string, len(r.disposablesOrder))
	copy(names, r.disposablesOrder)
	r.disposablesMu.Unlock()
	for i := len(names) - 1; i >= 0; i-- {
		r.DestroySingleton(names[i])
	}

	r.containedMu.Lock()
	r.contained = make(map[string]*orderedSet)
	r.containedMu.Unlock()

	r.dependentsMu.Lock()
	r.dependents = make(map[string]*orderedSet)
	r.dependentsMu.Unlock()

	r.dependenciesMu.Lock()
	r.dependencies = make(map[string]*orderedSet)
	r.dependenciesMu.Unlock()

	r.clearSingletonCache()
}

// clearSingletonCache removes every cached instance and resets the
// destruction flag.
func (r *SingletonRegistry) clearSingletonCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Range(func(key, _ any) bool {
		r.cache.Delete(key)
		return true
	})
	r.order = nil
	r.registered = make(map[string]struct{})
	r.destroying = false
	r.setGauge("anchor.singletons.count", 0)
}

// DestroySingleton removes the given name from the cache and destroys it,
// including every name that depends on it.
func (r *SingletonRegistry) DestroySingleton(name string) {
	r.RemoveSingleton(name)

	r.disposablesMu.Lock()
	disposable := r.disposables[name]
	if disposable != nil {
		delete(r.disposables, name)
		for i, candidate := range r.disposablesOrder {
			if candidate == name {
				r.disposablesOrder = append(r.disposablesOrder[:i], r.disposablesOrder[i+1:]...)
				break
			}
		}
	}
	r.disposablesMu.Unlock()

	r.destroyBean(name, disposable)
	r.incCounter("anchor.singletons.destroyed")
}

// destroyBean destroys the dependents of the given name first, then invokes
// its disposable capability, then its contained names, and finally scrubs
// the name out of the remaining dependency state.
func (r *SingletonRegistry) destroyBean(name string, disposable Disposable) {
	// Trigger destruction of dependent names first. The set is detached
	// under the lock so the recursion below runs without it.
	r.dependentsMu.Lock()
	var dependents []string
	if set, ok := r.dependents[name]; ok {
		dependents = set.values()
		delete(r.dependents, name)
	}
	r.dependentsMu.Unlock()
	if len(dependents) > 0 {
		r.logger.Debug("retrieved dependent singletons for destruction",
			logger.String("name", name),
			logger.Strings("dependents", dependents))
		for _, dependent := range dependents {
			r.DestroySingleton(dependent)
		}
	}

	// Actually destroy the instance now.
	if disposable != nil {
		r.destroyDisposable(name, disposable)
	}

	// Trigger destruction of contained names.
	r.containedMu.Lock()
	var containedNames []string
	if set, ok := r.contained[name]; ok {
		containedNames = set.values()
		delete(r.contained, name)
	}
	r.containedMu.Unlock()
	for _, contained := range containedNames {
		r.DestroySingleton(contained)
	}

	// Remove the destroyed name from other names' dependent sets.
	r.dependentsMu.Lock()
	for owner, set := range r.dependents {
		set.remove(name)
		if set.len() == 0 {
			delete(r.dependents, owner)
		}
	}
	r.dependentsMu.Unlock()

	// Discard the destroyed name's own dependency record.
	r.dependenciesMu.Lock()
	delete(r.dependencies, name)
	r.dependenciesMu.Unlock()
}

// destroyDisposable runs a single teardown capability. Errors and panics are
// reported and swallowed so one failing teardown never blocks destruction of
// the rest of the graph.
func (r *SingletonRegistry) destroyDisposable(name string, disposable Disposable) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Warn("destruction of singleton panicked",
				logger.String("name", name),
				logger.Error(fmt.Errorf("panic: %v", recovered)))
		}
	}()
	if err := disposable.Destroy(); err != nil {
		r.logger.Warn("destruction of singleton threw an exception",
			logger.String("name", name),
			logger.Error(err))
	}
}
