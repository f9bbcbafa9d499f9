package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	resolveengine "github.com/albertocavalcante/go-resolveengine"
	"github.com/albertocavalcante/go-resolveengine/excludes"
	"github.com/albertocavalcante/go-resolveengine/graph"
	"github.com/albertocavalcante/go-resolveengine/ident"
	"github.com/albertocavalcante/go-resolveengine/lockfile"
	"github.com/albertocavalcante/go-resolveengine/scenario"
	"github.com/albertocavalcante/go-resolveengine/version"
)

// errRejected is returned by resolve when a capability conflict could not be
// resolved.
var errRejected = errors.New("resolution rejected components")

// newRootCmd creates and returns the root command.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "resolveengine",
		Short: "Resolve version and capability conflicts in dependency scenarios",
		Long: `resolveengine loads a scenario file describing a dependency graph and
resolves its module and capability conflicts, or evaluates its exclude rules.

Configuration is read from flags and RESOLVEENGINE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringP("output", "o", "text", "output format (text, json, dot)")
	flags.String("trace-excludes", "", "exclude factory tracing (all, stackoverflow, operations)")
	flags.Int("max-exclude-depth", excludes.DefaultMaxDepth, "maximum nesting depth of exclude specs")
	flags.String("conflicts", "", "override the scenario conflict strategy (latest, fail, prefer_project)")
	flags.String("versions", "", "override the scenario version comparator (default, semver)")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newExcludesCmd())
	rootCmd.AddCommand(newExplainCmd())
	rootCmd.AddCommand(newDiffCmd())
	return rootCmd
}

// session is the state shared by the commands: configuration, scenario and
// engine.
type session struct {
	cfg      *config
	scenario *scenario.Scenario
	engine   *resolveengine.Engine
	graph    *graph.Graph
}

func newSession(cmd *cobra.Command, path string) (*session, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := cfg.logger(cmd.ErrOrStderr())

	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.OverrideStrategy(cfg.Conflicts, cfg.Versions); err != nil {
		return nil, err
	}

	engine, err := resolveengine.New(
		resolveengine.WithLogger(logger),
		resolveengine.WithModuleResolver(s.ModuleResolver()),
		resolveengine.WithComparator(s.Comparator()),
		resolveengine.WithReplacements(s.ReplacementRules()),
		resolveengine.WithCapabilityRules(s.CapabilityRules()...),
		resolveengine.WithExcludeTrace(cfg.traceMode()),
		resolveengine.WithMaxExcludeDepth(cfg.MaxExcludeDepth),
	)
	if err != nil {
		return nil, err
	}

	g, err := s.Graph(graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("scenario loaded", "path", path, "modules", len(g.Modules()))
	return &session{cfg: cfg, scenario: s, engine: engine, graph: g}, nil
}

func newResolveCmd() *cobra.Command {
	var lockPath string
	cmd := &cobra.Command{
		Use:   "resolve <scenario>",
		Short: "Resolve the conflicts of a scenario and print the resulting graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args[0])
			if err != nil {
				return err
			}
			report, err := sess.engine.Resolve(sess.graph)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), sess.cfg.Output, report); err != nil {
				return err
			}
			if lockPath != "" {
				if err := writeLock(lockPath, args[0], sess.graph); err != nil {
					return err
				}
			}
			if report.HasFailures() {
				return fmt.Errorf("%w: %d component(s)", errRejected, len(report.Rejected()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lockPath, "lock", "", "write the resolution to this lock file")
	return cmd
}

func writeLock(path, scenarioPath string, g *graph.Graph) error {
	content, err := os.ReadFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", scenarioPath, err)
	}
	lf := lockfile.FromGraph(g)
	lf.ScenarioHash = lockfile.HashContent(content)
	return lf.WriteFile(path)
}

func writeReport(w io.Writer, format string, report *resolveengine.ResolutionReport) error {
	switch format {
	case "json":
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "dot":
		_, err := fmt.Fprint(w, report.Graph.ToDOT())
		return err
	default:
		if _, err := fmt.Fprint(w, report.Graph.ToText()); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%s", report)
		return err
	}
}

type excludeResult struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Spec     string          `json:"spec"`
	Excludes map[string]bool `json:"excludes,omitempty"`
}

func newExcludesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "excludes <scenario>",
		Short: "Build the exclude rules of a scenario and evaluate them against its probes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args[0])
			if err != nil {
				return err
			}
			specs, err := sess.scenario.ExcludeSpecs(sess.engine.Excludes())
			if err != nil {
				return err
			}

			probes := sess.scenario.Probes
			if len(probes) == 0 {
				for _, m := range sess.graph.Modules() {
					probes = append(probes, m.ID())
				}
			}

			results := make([]excludeResult, 0, len(specs))
			for _, named := range specs {
				r := excludeResult{
					Name:     named.Name,
					Kind:     named.Spec.Kind().String(),
					Spec:     named.Spec.String(),
					Excludes: make(map[string]bool, len(probes)),
				}
				for _, id := range probes {
					r.Excludes[id.String()] = named.Spec.Excludes(id)
				}
				results = append(results, r)
			}
			return writeExcludes(cmd.OutOrStdout(), sess.cfg.Output, results, probes)
		},
	}
}

func writeExcludes(w io.Writer, format string, results []excludeResult, probes []ident.ModuleID) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s (%s): %s\n", r.Name, r.Kind, r.Spec); err != nil {
			return err
		}
		for _, id := range probes {
			verdict := "kept"
			if r.Excludes[id.String()] {
				verdict = "excluded"
			}
			if _, err := fmt.Fprintf(w, "  %s: %s\n", id, verdict); err != nil {
				return err
			}
		}
	}
	return nil
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <scenario> <group:name>",
		Short: "Resolve a scenario and explain the selection of one module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ident.ParseModuleID(args[1])
			if err != nil {
				return err
			}
			sess, err := newSession(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := sess.engine.Resolve(sess.graph); err != nil {
				return err
			}
			e, err := sess.graph.Explain(id)
			if err != nil {
				return err
			}
			return writeExplanation(cmd.OutOrStdout(), e)
		},
	}
}

func writeExplanation(w io.Writer, e *graph.Explanation) error {
	fmt.Fprintf(w, "%s\n", e.Module)
	if e.Selected == nil {
		fmt.Fprintln(w, "  selected: none")
	} else {
		fmt.Fprintf(w, "  selected: %s (%s)\n", e.Selected, e.Selected.Reason())
	}
	for _, c := range e.Candidates {
		fmt.Fprintf(w, "  candidate: %s [%s]\n", c, c.State())
	}
	for _, path := range e.Paths {
		names := make([]string, len(path))
		for i, n := range path {
			names[i] = n.String()
		}
		if _, err := fmt.Fprintf(w, "  path: %s\n", strings.Join(names, " -> ")); err != nil {
			return err
		}
	}
	return nil
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old.lock> <new.lock>",
		Short: "Compare two lock files written by resolve --lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			old, err := lockfile.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			updated, err := lockfile.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			compare := version.Compare
			if cfg.Versions == scenario.VersionsSemantic {
				compare = version.Semantic
			}
			return writeDiff(cmd.OutOrStdout(), cfg.Output, lockfile.Compare(old, updated, compare))
		},
	}
}

func writeDiff(w io.Writer, format string, d *lockfile.Diff) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	fmt.Fprintln(w, d.Summary())
	for _, c := range d.Added {
		fmt.Fprintf(w, "  + %s %s\n", c.Module, c.Version)
	}
	for _, c := range d.Removed {
		fmt.Fprintf(w, "  - %s %s\n", c.Module, c.Version)
	}
	for _, u := range d.Upgraded {
		fmt.Fprintf(w, "  ^ %s %s -> %s\n", u.Module, u.OldVersion, u.NewVersion)
	}
	for _, u := range d.Downgraded {
		fmt.Fprintf(w, "  v %s %s -> %s\n", u.Module, u.OldVersion, u.NewVersion)
	}
	for _, r := range d.Replacements {
		fmt.Fprintf(w, "  ~ %s replaced by %q (was %q)\n", r.Module, r.New, r.Old)
	}
	for _, c := range d.RejectedAdded {
		fmt.Fprintf(w, "  ! %s rejected\n", c)
	}
	for _, c := range d.RejectedRemoved {
		fmt.Fprintf(w, "  . %s no longer rejected\n", c)
	}
	return nil
}
