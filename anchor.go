// Package anchor provides an alias-aware, circular-reference-tolerant
// registry for long-lived named instances. It hands out exactly one instance
// per logical name, resolves naming indirection through aliases, and
// destroys instances in dependency-safe order.
//
// The registry does not decide what instances to create and performs no
// reflective construction: callers supply factory callbacks on cache misses,
// and a factory is free to recursively request other names from the same
// registry while its own name is marked in creation.
package anchor

import (
	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/anchor/internal/registry"
	"github.com/xraph/anchor/logger"
)

// Registry is the singleton instance registry.
type Registry = registry.SingletonRegistry

// AliasRegistry maintains the alias to canonical-name mapping.
type AliasRegistry = registry.AliasRegistry

// Factory lazily produces an instance for a name.
type Factory = registry.Factory

// Disposable is a teardown capability associated with a name.
type Disposable = registry.Disposable

// DisposeFunc adapts a plain function to the Disposable interface.
type DisposeFunc = registry.DisposeFunc

// StringValueResolver rewrites alias and canonical names during alias
// resolution.
type StringValueResolver = registry.StringValueResolver

// Option configures a registry.
type Option = registry.Option

// Logger represents the logging interface.
type Logger = logger.Logger

// New creates an empty singleton registry.
func New(opts ...Option) *Registry {
	return registry.NewSingletonRegistry(opts...)
}

// NewAliasRegistry creates an empty standalone alias registry.
func NewAliasRegistry(opts ...Option) *AliasRegistry {
	return registry.NewAliasRegistry(opts...)
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(l Logger) Option {
	return registry.WithLogger(l)
}

// WithMetrics sets an optional metrics collector.
func WithMetrics(m metrics.Metrics) Option {
	return registry.WithMetrics(m)
}

// WithAliasOverriding controls whether an alias already registered for a
// different canonical name may be re-pointed.
func WithAliasOverriding(allow bool) Option {
	return registry.WithAliasOverriding(allow)
}
