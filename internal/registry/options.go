package registry

import (
	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/anchor/logger"
)

// options holds the shared configuration of the registries.
type options struct {
	logger               logger.Logger
	metrics              metrics.Metrics
	allowAliasOverriding bool
}

// Option configures a registry.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:               logger.NewNoopLogger(),
		allowAliasOverriding: true,
	}
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets an optional metrics collector. Without it no telemetry
// is recorded.
func WithMetrics(m metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithAliasOverriding controls whether an alias already registered for a
// different canonical name may be re-pointed. Overriding is allowed by
// default.
func WithAliasOverriding(allow bool) Option {
	return func(o *options) {
		o.allowAliasOverriding = allow
	}
}
