package registry

import (
	"sync"

	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/anchor/errors"
	"github.com/xraph/anchor/logger"
)

// Factory lazily produces an instance for a name. It may call back into the
// registry to resolve other names while its own name is marked in creation.
type Factory func() (any, error)

// suppressedExceptionsLimit caps how many suppressed exceptions are kept as
// diagnostic context for an eventual creation failure.
const suppressedExceptionsLimit = 100

// singletonState is the creation state of a cached name.
type singletonState uint8

const (
	// stateFactoryPending means a factory is registered to lazily produce an
	// early reference. Used only during circular-reference resolution.
	stateFactoryPending singletonState = iota + 1
	// stateEarlyReference means a partially constructed instance is visible
	// to other in-progress constructions.
	stateEarlyReference
	// stateRegistered means a fully constructed instance is cached until
	// explicit removal or destruction.
	stateRegistered
)

// cacheEntry is one tier of the singleton cache. Entries are immutable once
// stored; state transitions replace the entry. A name absent from the cache
// is in the implicit fourth state.
type cacheEntry struct {
	state    singletonState
	instance any
	factory  Factory
}

// SingletonRegistry hands out exactly one instance per logical name. It
// resolves aliases through the embedded AliasRegistry, lets a half-built
// instance be observed by other constructions in flight, and destroys
// instances in dependency-safe order.
type SingletonRegistry struct {
	*AliasRegistry

	// mu is the full singleton lock. It is reentrant: GetOrCreate holds it
	// across the factory callback, and the factory may call back in.
	mu ReentrantMutex

	// cache maps name -> *cacheEntry. Reads on the fast path are lock-free;
	// all writes happen under mu.
	cache sync.Map

	// Registered names in registration order, guarded by mu.
	order      []string
	registered map[string]struct{}

	// Names currently in creation, and names excluded from the
	// in-creation checks.
	inCreation sync.Map
	exclusions sync.Map

	// Suppressed exceptions of the current creation episode; non-nil while
	// an episode is recording. Guarded by mu.
	suppressed []error

	// Whether we are currently within DestroySingletons. Guarded by mu.
	destroying bool

	disposablesMu    sync.Mutex
	disposables      map[string]Disposable
	disposablesOrder []string

	containedMu sync.Mutex
	contained   map[string]*orderedSet

	dependentsMu sync.Mutex
	dependents   map[string]*orderedSet

	dependenciesMu sync.Mutex
	dependencies   map[string]*orderedSet

	metrics metrics.Metrics
}

// NewSingletonRegistry creates an empty singleton registry.
func NewSingletonRegistry(opts ...Option) *SingletonRegistry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SingletonRegistry{
		AliasRegistry: newAliasRegistry(o),
		registered:    make(map[string]struct{}),
		disposables:   make(map[string]Disposable),
		contained:     make(map[string]*orderedSet),
		dependents:    make(map[string]*orderedSet),
		dependencies:  make(map[string]*orderedSet),
		metrics:       o.metrics,
	}
}

// Register registers an existing, fully constructed instance under the given
// name.
func (r *SingletonRegistry) Register(name string, instance any) error {
	if name == "" {
		return errors.ErrInvalidArgument("name", "must not be empty")
	}
	if instance == nil {
		return errors.ErrInvalidArgument("instance", "must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
		return errors.ErrSingletonAlreadyRegistered(name)
	}
	r.addSingletonLocked(name, instance)
	return nil
}

// AddFactory registers a factory that produces an early reference for the
// given name. Constructors call it before they finish so that circular
// dependencies can observe their incomplete instance. No-op if the name is
// already fully registered.
func (r *SingletonRegistry) AddFactory(name string, factory Factory) error {
	if name == "" {
		return errors.ErrInvalidArgument("name", "must not be empty")
	}
	if factory == nil {
		return errors.ErrInvalidArgument("factory", "must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
		return nil
	}
	r.cache.Store(name, &cacheEntry{state: stateFactoryPending, factory: factory})
	r.trackRegisteredLocked(name)
	return nil
}

// Get returns the instance registered under the given name, if any. It also
// returns an early reference to a singleton currently in creation, resolving
// a circular reference.
func (r *SingletonRegistry) Get(name string) (any, bool) {
	return r.getSingleton(name, true)
}

func (r *SingletonRegistry) getSingleton(name string, allowEarlyReference bool) (any, bool) {
	// Quick check without acquiring the full singleton lock.
	if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
		return entry.instance, true
	}
	if !r.IsSingletonCurrentlyInCreation(name) {
		return nil, false
	}
	if entry := r.entry(name); entry != nil && entry.state == stateEarlyReference {
		return entry.instance, true
	}
	if !allowEarlyReference {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the lock; the checks above ran outside of it.
	entry := r.entry(name)
	if entry == nil {
		return nil, false
	}
	switch entry.state {
	case stateRegistered, stateEarlyReference:
		return entry.instance, true
	case stateFactoryPending:
		instance, err := entry.factory()
		if err != nil {
			// The factory runs exactly once; a failed early reference is
			// remembered as suppressed context and the name drops back to
			// absent.
			r.cache.Delete(name)
			r.OnSuppressed(err)
			r.logger.Debug("early reference factory failed",
				logger.String("name", name),
				logger.Error(err))
			return nil, false
		}
		r.cache.Store(name, &cacheEntry{state: stateEarlyReference, instance: instance})
		return instance, true
	}
	return nil, false
}

// GetOrCreate returns the instance registered under the given name, creating
// and registering it with the factory if none is registered yet. The whole
// body runs inside the reentrant singleton lock, so the factory may resolve
// other names from this registry while its own name is marked in creation.
func (r *SingletonRegistry) GetOrCreate(name string, factory Factory) (any, error) {
	if name == "" {
		return nil, errors.ErrInvalidArgument("name", "must not be empty")
	}
	if factory == nil {
		return nil, errors.ErrInvalidArgument("factory", "must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
		return entry.instance, nil
	}
	if r.destroying {
		return nil, errors.ErrCreationNotAllowed(name)
	}

	r.logger.Debug("creating shared instance of singleton", logger.String("name", name))
	if err := r.beforeSingletonCreation(name); err != nil {
		return nil, err
	}

	recordSuppressed := r.suppressed == nil
	if recordSuppressed {
		r.suppressed = make([]error, 0, 4)
	}

	instance, err := factory()

	if err != nil && errors.IsCode(err, errors.CodeInconsistentState) {
		// The singleton may have implicitly appeared in the meantime; if so,
		// proceed with it since the error indicates that state.
		if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
			instance, err = entry.instance, nil
		}
	}
	if err != nil && recordSuppressed {
		var creationErr *errors.AnchorError
		if errors.AsCode(err, errors.CodeCreationFailed, &creationErr) {
			for _, suppressed := range r.suppressed {
				creationErr.AddRelated(suppressed)
			}
		}
	}
	if recordSuppressed {
		r.suppressed = nil
	}
	if afterErr := r.afterSingletonCreation(name); afterErr != nil && err == nil {
		err = afterErr
	}

	if err != nil {
		r.incCounter("anchor.singletons.creation_failures")
		return nil, err
	}

	// The factory may have registered the name itself as a side effect; the
	// pre-existing value wins over the factory's return value.
	if entry := r.entry(name); entry != nil && entry.state == stateRegistered {
		return entry.instance, nil
	}
	if instance == nil {
		r.incCounter("anchor.singletons.creation_failures")
		return nil, errors.ErrCreationFailed(name,
			errors.ErrInvalidArgument("instance", "factory returned nil instance"))
	}
	r.addSingletonLocked(name, instance)
	r.incCounter("anchor.singletons.created")
	return instance, nil
}

// OnSuppressed records an exception that got suppressed during the creation
// of a singleton, e.g. a temporary circular-reference resolution problem, to
// be attached as related cause to an eventual top-level creation failure.
// Capped at 100 entries.
func (r *SingletonRegistry) OnSuppressed(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suppressed != nil && len(r.suppressed) < suppressedExceptionsLimit {
		r.suppressed = append(r.suppressed, err)
	}
}

// RemoveSingleton removes the name from every cache tier and from the
// registered-names index. The dependency graph is untouched.
func (r *SingletonRegistry) RemoveSingleton(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeSingletonLocked(name)
}

// Contains reports whether a fully constructed instance is registered under
// the given name.
func (r *SingletonRegistry) Contains(name string) bool {
	entry := r.entry(name)
	return entry != nil && entry.state == stateRegistered
}

// Names returns the registered singleton names in registration order.
func (r *SingletonRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered singleton names.
func (r *SingletonRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// SetCurrentlyInCreation toggles whether the given name takes part in the
// in-creation checks. Passing false excludes the name, e.g. for
// intentionally re-entrant or externally managed constructions.
func (r *SingletonRegistry) SetCurrentlyInCreation(name string, inCreation bool) {
	if !inCreation {
		r.exclusions.Store(name, struct{}{})
	} else {
		r.exclusions.Delete(name)
	}
}

// IsCurrentlyInCreation reports whether the given name is currently being
// constructed, honoring the exclusion list.
func (r *SingletonRegistry) IsCurrentlyInCreation(name string) bool {
	return !r.isExcluded(name) && r.IsSingletonCurrentlyInCreation(name)
}

// IsSingletonCurrentlyInCreation is the raw in-progress check, ignoring the
// exclusion list.
func (r *SingletonRegistry) IsSingletonCurrentlyInCreation(name string) bool {
	_, ok := r.inCreation.Load(name)
	return ok
}

// Mutex exposes the singleton mutex to collaborators performing an extended
// multi-step construction. Collaborators should synchronize on it instead of
// introducing their own lock, to avoid deadlocks in lazy-init situations.
func (r *SingletonRegistry) Mutex() sync.Locker {
	return &r.mu
}

// ---------------------------------------------------------------------------

func (r *SingletonRegistry) entry(name string) *cacheEntry {
	value, ok := r.cache.Load(name)
	if !ok {
		return nil
	}
	return value.(*cacheEntry)
}

// addSingletonLocked stores a fully constructed instance, clearing any stale
// factory or early-reference entry for the name. Caller holds mu.
func (r *SingletonRegistry) addSingletonLocked(name string, instance any) {
	r.cache.Store(name, &cacheEntry{state: stateRegistered, instance: instance})
	r.trackRegisteredLocked(name)
	r.incCounter("anchor.singletons.registered")
}

func (r *SingletonRegistry) trackRegisteredLocked(name string) {
	if _, ok := r.registered[name]; !ok {
		r.registered[name] = struct{}{}
		r.order = append(r.order, name)
	}
	r.setGauge("anchor.singletons.count", float64(len(r.order)))
}

func (r *SingletonRegistry) removeSingletonLocked(name string) {
	r.cache.Delete(name)
	if _, ok := r.registered[name]; ok {
		delete(r.registered, name)
		for i, candidate := range r.order {
			if candidate == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.setGauge("anchor.singletons.count", float64(len(r.order)))
}

func (r *SingletonRegistry) isExcluded(name string) bool {
	_, ok := r.exclusions.Load(name)
	return ok
}

// beforeSingletonCreation marks the name as in creation. A name already in
// creation means an unsupported circular reference: two constructions each
// requiring the other's finished instance.
func (r *SingletonRegistry) beforeSingletonCreation(name string) error {
	if r.isExcluded(name) {
		return nil
	}
	if _, loaded := r.inCreation.LoadOrStore(name, struct{}{}); loaded {
		return errors.ErrCurrentlyInCreation(name)
	}
	return nil
}

// afterSingletonCreation unmarks the name as in creation.
func (r *SingletonRegistry) afterSingletonCreation(name string) error {
	if r.isExcluded(name) {
		return nil
	}
	if _, loaded := r.inCreation.LoadAndDelete(name); !loaded {
		return errors.ErrInconsistentState("singleton '" + name + "' isn't currently in creation")
	}
	return nil
}

func (r *SingletonRegistry) incCounter(name string) {
	if r.metrics != nil {
		r.metrics.Counter(name).Inc()
	}
}

func (r *SingletonRegistry) setGauge(name string, value float64) {
	if r.metrics != nil {
		r.metrics.Gauge(name).Set(value)
	}
}
