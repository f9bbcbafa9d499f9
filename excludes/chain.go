package excludes

import "log/slog"

// Chain is the standard factory stack:
//
//	Optimizing -> Caching -> Normalizing -> Logging (optional) -> Base
//
// Sub-expressions built by the normalizing layer go back through the head of
// the chain, so they are optimized and cached too.
type Chain struct {
	Factory
	cache *Caching
}

type chainConfig struct {
	maxDepth int
	logger   *slog.Logger
	mode     TraceMode
}

// ChainOption configures NewChain.
type ChainOption func(*chainConfig)

// WithMaxDepth sets the nesting depth above which construction panics with
// an *OverflowError.
func WithMaxDepth(depth int) ChainOption {
	return func(c *chainConfig) {
		c.maxDepth = depth
	}
}

// WithTrace enables the logging layer. TraceOff removes it from the chain.
func WithTrace(logger *slog.Logger, mode TraceMode) ChainOption {
	return func(c *chainConfig) {
		c.logger = logger
		c.mode = mode
	}
}

// NewChain assembles the factory stack.
func NewChain(opts ...ChainOption) *Chain {
	cfg := &chainConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(cfg)
	}

	var inner Factory = NewBaseFactory(cfg.maxDepth)
	if cfg.mode != TraceOff {
		inner = NewLogging(inner, cfg.logger, cfg.mode)
	}
	normalizing := NewNormalizing(inner)
	cache := NewCaching(normalizing)
	head := NewOptimizing(cache)
	normalizing.recurseThrough(head)

	return &Chain{Factory: head, cache: cache}
}

// Cache returns the caching layer, e.g. for NewCacheCollector.
func (c *Chain) Cache() *Caching {
	return c.cache
}
