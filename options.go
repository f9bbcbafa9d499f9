package resolveengine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/excludes"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// Option configures an Engine.
type Option func(*engineConfig) error

// engineConfig holds all engine configuration.
type engineConfig struct {
	moduleResolver conflicts.ModuleConflictResolver
	replacements   *conflicts.Replacements
	rules          []conflicts.CapabilityResolutionRule
	comparator     version.Comparator

	onConflict           func(conflicts.Conflict)
	onCapabilityConflict func(conflicts.CapabilityConflictResult)

	maxExcludeDepth int
	traceMode       excludes.TraceMode
	traceSet        bool
	registerer      prometheus.Registerer

	// logger is the structured logger for debug output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithModuleResolver sets the strategy for version conflicts. The default
// selects the latest version.
func WithModuleResolver(r conflicts.ModuleConflictResolver) Option {
	return func(c *engineConfig) error {
		if r == nil {
			return errors.New("module resolver must not be nil")
		}
		c.moduleResolver = r
		return nil
	}
}

// WithReplacements declares module replacements ("a is replaced by b").
func WithReplacements(r *conflicts.Replacements) Option {
	return func(c *engineConfig) error {
		c.replacements = r
		return nil
	}
}

// WithCapabilityRules adds capability resolution rules, consulted in order
// before the built-in capability resolvers.
func WithCapabilityRules(rules ...conflicts.CapabilityResolutionRule) Option {
	return func(c *engineConfig) error {
		for _, r := range rules {
			if r.Action == nil {
				return fmt.Errorf("capability rule for %s:%s has no action", r.Group, r.Name)
			}
		}
		c.rules = append(c.rules, rules...)
		return nil
	}
}

// WithComparator sets the version ordering used by resolvers and reports.
func WithComparator(cmp version.Comparator) Option {
	return func(c *engineConfig) error {
		c.comparator = cmp
		return nil
	}
}

// WithConflictListener registers a callback for each resolved module conflict.
func WithConflictListener(fn func(conflicts.Conflict)) Option {
	return func(c *engineConfig) error {
		c.onConflict = fn
		return nil
	}
}

// WithCapabilityListener registers a callback for each resolved capability
// conflict.
func WithCapabilityListener(fn func(conflicts.CapabilityConflictResult)) Option {
	return func(c *engineConfig) error {
		c.onCapabilityConflict = fn
		return nil
	}
}

// WithExcludeTrace sets the trace mode of the exclude factory. Without this
// option the mode is read from RESOLVEENGINE_TRACE_EXCLUDES.
func WithExcludeTrace(mode excludes.TraceMode) Option {
	return func(c *engineConfig) error {
		c.traceMode = mode
		c.traceSet = true
		return nil
	}
}

// WithMaxExcludeDepth sets the nesting depth above which building an exclude
// spec fails with an *excludes.OverflowError.
func WithMaxExcludeDepth(depth int) Option {
	return func(c *engineConfig) error {
		c.maxExcludeDepth = depth
		return nil
	}
}

// WithMetrics registers the exclude cache collector with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *engineConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "resolveengine")
//	engine, err := resolveengine.New(resolveengine.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *engineConfig) validate() error {
	if c.maxExcludeDepth < 1 {
		return fmt.Errorf("max exclude depth must be positive, got %d", c.maxExcludeDepth)
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *engineConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}
