// Package resolveengine resolves version and capability conflicts in a
// dependency graph and builds exclude rules through an optimizing, caching
// factory chain.
//
// # Overview
//
// The package wires together three components:
//
//   - excludes: the exclude-spec algebra and its factory chain
//   - conflicts: the module (version) and capability conflict handlers
//   - graph: the in-memory graph state the handlers act on
//
// # Quick Start
//
//	engine, err := resolveengine.New(
//	    resolveengine.WithCapabilityRules(rules...),
//	    resolveengine.WithLogger(slog.Default()),
//	)
//	report, err := engine.Resolve(g)
//	for _, c := range report.ModuleConflicts {
//	    fmt.Println(c)
//	}
//
// Exclude specs are built through the engine's factory so that they are
// simplified and shared:
//
//	spec, err := engine.BuildExclude(func(f excludes.Factory) excludes.Spec {
//	    return f.AnyOf(f.Group("org.test"), f.Module("junit"))
//	})
//
// # Thread Safety
//
// Resolve must not be called concurrently on graphs sharing state. The
// exclude factory returned by Excludes is safe for concurrent use.
package resolveengine

import (
	"fmt"

	"github.com/albertocavalcante/go-resolveengine/conflicts"
	"github.com/albertocavalcante/go-resolveengine/excludes"
	"github.com/albertocavalcante/go-resolveengine/graph"
)

// Engine resolves conflicts with a fixed configuration.
type Engine struct {
	cfg   *engineConfig
	chain *excludes.Chain
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	cfg, err := newEngineConfig(opts...)
	if err != nil {
		return nil, err
	}

	chain := excludes.NewChain(
		excludes.WithMaxDepth(cfg.maxExcludeDepth),
		excludes.WithTrace(cfg.log().With("component", "excludes"), cfg.traceMode),
	)
	if cfg.registerer != nil {
		if err := cfg.registerer.Register(excludes.NewCacheCollector(chain.Cache())); err != nil {
			return nil, fmt.Errorf("register exclude cache metrics: %w", err)
		}
	}
	return &Engine{cfg: cfg, chain: chain}, nil
}

// Excludes returns the exclude factory of the engine.
func (e *Engine) Excludes() excludes.Factory { return e.chain }

// ExcludeCacheStats returns the hit and miss counters of the exclude cache.
func (e *Engine) ExcludeCacheStats() []excludes.CacheStats { return e.chain.Cache().Stats() }

// BuildExclude runs build against the engine's exclude factory. A spec
// nested deeper than the configured limit is reported as an
// *excludes.OverflowError.
func (e *Engine) BuildExclude(build func(excludes.Factory) excludes.Spec) (excludes.Spec, error) {
	return excludes.Recover(func() excludes.Spec { return build(e.chain) })
}

// Resolve registers every module of g, and every selected node, as a
// conflict candidate and resolves conflicts until none is left. Module
// conflicts are resolved before capability conflicts.
//
// The returned report is non-nil even on error and holds the conflicts
// resolved before the failure.
func (e *Engine) Resolve(g *graph.Graph) (*ResolutionReport, error) {
	report := &ResolutionReport{Graph: g}
	if g.Root() == nil {
		return report, ErrNoRoot
	}
	log := e.cfg.log()

	opts := []conflicts.Option{
		conflicts.WithLogger(log),
		conflicts.WithReplacements(e.cfg.replacements),
		conflicts.WithComparator(e.cfg.comparator),
		conflicts.WithConflictListener(func(c conflicts.Conflict) {
			report.ModuleConflicts = append(report.ModuleConflicts, c)
			if e.cfg.onConflict != nil {
				e.cfg.onConflict(c)
			}
		}),
		conflicts.WithCapabilityListener(func(r conflicts.CapabilityConflictResult) {
			report.CapabilityConflicts = append(report.CapabilityConflicts, r)
			if e.cfg.onCapabilityConflict != nil {
				e.cfg.onCapabilityConflict(r)
			}
		}),
	}
	modules := conflicts.NewModuleConflictHandler(g, e.cfg.moduleResolver, opts...)
	capabilities := conflicts.NewCapabilitiesConflictHandler(g,
		conflicts.NewDefaultCapabilityConflictResolver(e.cfg.rules, e.cfg.comparator), opts...)

	for _, m := range g.Modules() {
		modules.RegisterCandidate(m)
	}
	if err := ResolveConflicts(modules); err != nil {
		return report, err
	}

	// A registration may deselect modules not visited yet: their nodes stay
	// selected until the conflict is resolved, so walk every component.
	for _, m := range g.Modules() {
		for _, c := range m.Components() {
			for _, n := range c.NodeStates() {
				if n.IsSelected() {
					capabilities.RegisterCandidate(n)
				}
			}
		}
	}
	if err := ResolveConflicts(modules, capabilities); err != nil {
		return report, err
	}

	log.Debug("resolution complete",
		"module_conflicts", len(report.ModuleConflicts),
		"capability_conflicts", len(report.CapabilityConflicts),
		"rejected", len(report.Rejected()))
	return report, nil
}

// ConflictHandler is implemented by the module and capability conflict
// handlers.
type ConflictHandler interface {
	HasConflicts() bool
	ResolveNextConflict() error
}

// ResolveConflicts resolves conflicts until no handler has one left. On each
// step the first handler with a pending conflict wins, so handlers are given
// in priority order.
func ResolveConflicts(handlers ...ConflictHandler) error {
	for {
		progressed := false
		for _, h := range handlers {
			if !h.HasConflicts() {
				continue
			}
			if err := h.ResolveNextConflict(); err != nil {
				return &ResolutionError{Phase: phase(h), Err: err}
			}
			progressed = true
			break
		}
		if !progressed {
			return nil
		}
	}
}

func phase(h ConflictHandler) string {
	switch h.(type) {
	case *conflicts.ModuleConflictHandler:
		return "module"
	case *conflicts.CapabilitiesConflictHandler:
		return "capability"
	default:
		return fmt.Sprintf("%T", h)
	}
}
