package conflicts

import (
	"log/slog"

	"github.com/albertocavalcante/go-resolveengine/version"
)

// Option configures a conflict handler.
type Option func(*handlerConfig)

type handlerConfig struct {
	logger             *slog.Logger
	replacements       *Replacements
	onConflict         func(Conflict)
	onCapabilityResult func(CapabilityConflictResult)
	comparator         version.Comparator
}

// WithLogger sets the logger for debug output. Handlers are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// WithReplacements declares module replacements for the module handler.
func WithReplacements(r *Replacements) Option {
	return func(c *handlerConfig) {
		c.replacements = r
	}
}

// WithConflictListener registers a callback invoked after each module
// conflict is resolved.
func WithConflictListener(fn func(Conflict)) Option {
	return func(c *handlerConfig) {
		c.onConflict = fn
	}
}

// WithCapabilityListener registers a callback invoked after each capability
// conflict is resolved.
func WithCapabilityListener(fn func(CapabilityConflictResult)) Option {
	return func(c *handlerConfig) {
		c.onCapabilityResult = fn
	}
}

// WithComparator sets the version ordering used to report conflicts.
func WithComparator(cmp version.Comparator) Option {
	return func(c *handlerConfig) {
		c.comparator = cmp
	}
}

func newHandlerConfig(opts []Option) handlerConfig {
	cfg := handlerConfig{comparator: version.Compare}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.replacements == nil {
		cfg.replacements = NewReplacements()
	}
	if cfg.comparator == nil {
		cfg.comparator = version.Compare
	}
	return cfg
}
