package conflicts

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/selection"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// ModuleConflictHandler detects and resolves conflicts between versions of a
// module, and between modules linked by a replacement.
//
// A ModuleConflictHandler is not safe for concurrent use.
type ModuleConflictHandler struct {
	graph        Graph
	resolver     ModuleConflictResolver
	replacements *Replacements
	conflicts    *Container[ident.ModuleID, Component]
	onConflict   func(Conflict)
	comparator   version.Comparator
	logger       *slog.Logger
}

// NewModuleConflictHandler returns a handler resolving conflicts of graph
// with resolver.
func NewModuleConflictHandler(graph Graph, resolver ModuleConflictResolver, opts ...Option) *ModuleConflictHandler {
	cfg := newHandlerConfig(opts)
	return &ModuleConflictHandler{
		graph:        graph,
		resolver:     resolver,
		replacements: cfg.replacements,
		conflicts:    NewContainer[ident.ModuleID, Component](),
		onConflict:   cfg.onConflict,
		comparator:   cfg.comparator,
		logger:       cfg.logger,
	}
}

// RegisterCandidate registers the versions of module. When a conflict
// exists, every participating module has its selection cleared.
func (h *ModuleConflictHandler) RegisterCandidate(module CandidateModule) PotentialConflict {
	var replacedBy *ident.ModuleID
	if rep, ok := h.replacements.For(module.ID()); ok {
		target := rep.Target
		replacedBy = &target
	}
	pending := h.conflicts.Add(module.ID(), module.Versions(), replacedBy)
	if pending == nil {
		return noConflict{}
	}
	for _, id := range pending.Participants() {
		if m := h.graph.Module(id); m != nil {
			m.ClearSelection()
		}
	}
	h.logger.Debug("module conflict registered",
		"module", module.ID().String(),
		"participants", len(pending.participants))
	return pending
}

// HasConflicts reports whether a conflict is pending.
func (h *ModuleConflictHandler) HasConflicts() bool {
	return !h.conflicts.IsEmpty()
}

// ResolveNextConflict resolves the oldest pending conflict. The winning
// module is updated first, then every other participant is replaced with the
// winner.
func (h *ModuleConflictHandler) ResolveNextConflict() error {
	pending := h.conflicts.Pop()
	if pending == nil {
		return ErrNoConflict
	}

	details := NewResolverDetails(pending.Candidates())
	h.resolver.Select(details)
	if err := details.Failure(); err != nil {
		return err
	}
	selected := details.Selected()
	if selected == nil {
		return &InternalStateError{Message: fmt.Sprintf("resolver %T selected no candidate for %v", h.resolver, pending.Participants())}
	}

	participants := pending.Participants()
	if len(pending.candidates) > 1 {
		selected.AddCause(selection.Describe(selection.ConflictResolution, "between versions %s", h.describeVersions(pending.candidates, selected)))
	}
	if len(participants) > 1 {
		h.addReplacementCauses(participants, selected)
	}

	winner := selected.Module()
	winner.ReplaceWith(selected)
	for _, id := range participants {
		if id == winner.ID() {
			continue
		}
		m := h.graph.Module(id)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrUnknownModule, id)
		}
		m.ReplaceWith(selected)
	}

	h.logger.Debug("module conflict resolved",
		"participants", fmt.Sprint(participants),
		"selected", selected.ID().String())
	if h.onConflict != nil {
		h.onConflict(h.conflict(winner.ID(), pending.candidates, selected))
	}
	return nil
}

// describeVersions renders the distinct candidate versions, the selected one
// first and the others in descending order.
func (h *ModuleConflictHandler) describeVersions(candidates []Component, selected Component) string {
	others := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Version() != selected.Version() && !slices.Contains(others, c.Version()) {
			others = append(others, c.Version())
		}
	}
	version.Sort(others, h.comparator)
	slices.Reverse(others)
	out := selected.Version()
	for _, v := range others {
		out += " and " + v
	}
	return out
}

func (h *ModuleConflictHandler) addReplacementCauses(participants []ident.ModuleID, selected Component) {
	for _, id := range participants {
		rep, ok := h.replacements.For(id)
		if !ok {
			continue
		}
		cause := selection.Describe(selection.SelectedByRule, "%s replaced with %s", id, rep.Target)
		if rep.Reason != "" {
			cause.Description = rep.Reason
		}
		selected.AddCause(cause)
	}
}

func (h *ModuleConflictHandler) conflict(id ident.ModuleID, candidates []Component, selected Component) Conflict {
	participants := make([]Participant, len(candidates))
	for i, c := range candidates {
		participants[i] = Participant{Version: c.Version(), ComponentID: c.ComponentID()}
	}
	return Conflict{
		ModuleID:        id,
		Participants:    participants,
		SelectionReason: selected.Reason(),
	}
}
