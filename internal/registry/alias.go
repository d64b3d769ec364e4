package registry

import (
	"sync"

	"github.com/xraph/anchor/errors"
	"github.com/xraph/anchor/logger"
)

// StringValueResolver rewrites alias and canonical names during
// ResolveAliases, e.g. to expand placeholders. Returning an empty string
// means "no value"; the mapping it belongs to is dropped.
type StringValueResolver func(value string) string

// AliasRegistry maintains the mapping from alias to canonical name. The map
// is guaranteed acyclic: cycles are rejected when an alias is registered,
// which keeps CanonicalName a total function.
type AliasRegistry struct {
	mu              sync.Mutex
	aliases         map[string]string
	allowOverriding bool
	logger          logger.Logger
}

// NewAliasRegistry creates an empty alias registry.
func NewAliasRegistry(opts ...Option) *AliasRegistry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newAliasRegistry(o)
}

func newAliasRegistry(o options) *AliasRegistry {
	return &AliasRegistry{
		aliases:         make(map[string]string),
		allowOverriding: o.allowAliasOverriding,
		logger:          o.logger,
	}
}

// RegisterAlias registers an alias for the given canonical name. Registering
// a name as an alias of itself removes any existing mapping for it.
func (a *AliasRegistry) RegisterAlias(name, alias string) error {
	if name == "" {
		return errors.ErrInvalidArgument("name", "must not be empty")
	}
	if alias == "" {
		return errors.ErrInvalidArgument("alias", "must not be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if alias == name {
		delete(a.aliases, alias)
		a.logger.Debug("alias definition ignored since it points to same name",
			logger.String("alias", alias))
		return nil
	}

	if registeredName, ok := a.aliases[alias]; ok {
		if registeredName == name {
			// An existing alias - no need to re-register
			return nil
		}
		if !a.allowOverriding {
			return errors.ErrAliasAlreadyRegistered(alias, name, registeredName)
		}
		a.logger.Debug("overriding alias definition",
			logger.String("alias", alias),
			logger.String("registered_name", registeredName),
			logger.String("name", name))
	}

	if err := a.checkForAliasCircle(name, alias); err != nil {
		return err
	}
	a.aliases[alias] = name
	a.logger.Debug("alias definition registered",
		logger.String("alias", alias),
		logger.String("name", name))
	return nil
}

// RemoveAlias removes the given alias from the registry.
func (a *AliasRegistry) RemoveAlias(alias string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.aliases[alias]; !ok {
		return errors.ErrAliasNotFound(alias)
	}
	delete(a.aliases, alias)
	return nil
}

// IsAlias reports whether the given name is registered as an alias.
func (a *AliasRegistry) IsAlias(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.aliases[name]
	return ok
}

// HasAlias reports whether the given name has the given alias registered,
// directly or through a chain of aliases.
func (a *AliasRegistry) HasAlias(name, alias string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasAliasLocked(name, alias)
}

// hasAliasLocked walks the alias chain starting at alias and reports whether
// it reaches name. Iterative with a visited guard to bound the walk on
// adversarial input; the map itself is kept acyclic by RegisterAlias.
func (a *AliasRegistry) hasAliasLocked(name, alias string) bool {
	visited := make(map[string]struct{})
	current := alias
	for {
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}
		registeredName, ok := a.aliases[current]
		if !ok {
			return false
		}
		if registeredName == name {
			return true
		}
		current = registeredName
	}
}

// Aliases returns all aliases that resolve to the given name, directly or
// transitively. The order follows the traversal over reverse alias edges and
// is otherwise unspecified.
func (a *AliasRegistry) Aliases(name string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]string, 0)
	seen := map[string]struct{}{name: {}}
	stack := []string{name}
	for len(stack) > 0 {
		target := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for alias, registeredName := range a.aliases {
			if registeredName != target {
				continue
			}
			if _, ok := seen[alias]; ok {
				continue
			}
			seen[alias] = struct{}{}
			result = append(result, alias)
			stack = append(stack, alias)
		}
	}
	return result
}

// ResolveAliases applies the given resolver to every alias/name pair,
// atomically with respect to concurrent readers. Pairs whose resolved alias
// or name comes back empty, or equal to each other, are dropped; rewritten
// pairs that collide with an existing mapping to the same resolved name are
// deduplicated; colliding with a different name fails.
func (a *AliasRegistry) ResolveAliases(resolver StringValueResolver) error {
	if resolver == nil {
		return errors.ErrInvalidArgument("resolver", "must not be nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]string, len(a.aliases))
	for alias, name := range a.aliases {
		snapshot[alias] = name
	}

	for alias, registeredName := range snapshot {
		resolvedAlias := resolver(alias)
		resolvedName := resolver(registeredName)

		switch {
		case resolvedAlias == "" || resolvedName == "" || resolvedAlias == resolvedName:
			delete(a.aliases, alias)

		case resolvedAlias != alias:
			if existingName, ok := a.aliases[resolvedAlias]; ok {
				if existingName == resolvedName {
					// Pointing to existing alias - just remove the original
					delete(a.aliases, alias)
					continue
				}
				return errors.ErrAliasAlreadyRegistered(resolvedAlias, resolvedName, registeredName)
			}
			if err := a.checkForAliasCircle(resolvedName, resolvedAlias); err != nil {
				return err
			}
			delete(a.aliases, alias)
			a.aliases[resolvedAlias] = resolvedName

		case registeredName != resolvedName:
			if err := a.checkForAliasCircle(resolvedName, alias); err != nil {
				return err
			}
			a.aliases[alias] = resolvedName
		}
	}
	return nil
}

// CanonicalName follows alias mappings from the given name until no further
// mapping exists and returns the terminal name. Terminates because the map
// is acyclic.
func (a *AliasRegistry) CanonicalName(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canonicalNameLocked(name)
}

func (a *AliasRegistry) canonicalNameLocked(name string) string {
	canonical := name
	for {
		resolved, ok := a.aliases[canonical]
		if !ok {
			return canonical
		}
		canonical = resolved
	}
}

// checkForAliasCircle rejects a registration whose name already resolves,
// directly or transitively, to the candidate alias.
func (a *AliasRegistry) checkForAliasCircle(name, alias string) error {
	if a.hasAliasLocked(alias, name) {
		return errors.ErrCircularReference(name, alias)
	}
	return nil
}
