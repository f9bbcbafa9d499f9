package excludes

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/albertocavalcante/go-resolveengine/ident"
)

// TraceEnv is the environment variable read by TraceModeFromEnv.
const TraceEnv = "RESOLVEENGINE_TRACE_EXCLUDES"

// maxStackFrames bounds the stack trace logged on overflow.
const maxStackFrames = 100

// TraceMode selects what the Logging factory records.
type TraceMode int

const (
	// TraceOff disables the logging factory.
	TraceOff TraceMode = 0
	// TraceOperations logs every union and intersection.
	TraceOperations TraceMode = 1 << iota
	// TraceStackOverflow logs a truncated stack trace on overflow.
	TraceStackOverflow

	// TraceAll combines every trace mode.
	TraceAll = TraceOperations | TraceStackOverflow
)

// ParseTraceMode parses "all", "stackoverflow", "operations" or the empty
// string (TraceOff). Matching is case-insensitive.
func ParseTraceMode(s string) (TraceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return TraceOff, nil
	case "all":
		return TraceAll, nil
	case "stackoverflow":
		return TraceStackOverflow, nil
	case "operations":
		return TraceOperations, nil
	}
	return TraceOff, fmt.Errorf("unknown exclude trace mode %q (want all, stackoverflow or operations)", s)
}

// TraceModeFromEnv reads the trace mode from RESOLVEENGINE_TRACE_EXCLUDES.
func TraceModeFromEnv() (TraceMode, error) {
	return ParseTraceMode(os.Getenv(TraceEnv))
}

func (m TraceMode) has(flag TraceMode) bool { return m&flag != 0 }

func (m TraceMode) String() string {
	switch m {
	case TraceOff:
		return "off"
	case TraceOperations:
		return "operations"
	case TraceStackOverflow:
		return "stackoverflow"
	case TraceAll:
		return "all"
	}
	return fmt.Sprintf("TraceMode(%d)", int(m))
}

// Logging records unions and intersections built by its delegate. On an
// *OverflowError it optionally logs the stack, truncated to 100 frames, and
// re-panics.
type Logging struct {
	delegate Factory
	logger   *slog.Logger
	mode     TraceMode
}

var _ Factory = (*Logging)(nil)

// NewLogging wraps delegate. A nil logger discards everything.
func NewLogging(delegate Factory, logger *slog.Logger, mode TraceMode) *Logging {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Logging{delegate: delegate, logger: logger, mode: mode}
}

func (f *Logging) Nothing() Spec                   { return f.delegate.Nothing() }
func (f *Logging) Everything() Spec                { return f.delegate.Everything() }
func (f *Logging) Group(group string) Spec         { return f.delegate.Group(group) }
func (f *Logging) Module(module string) Spec       { return f.delegate.Module(module) }
func (f *Logging) ModuleID(id ident.ModuleID) Spec { return f.delegate.ModuleID(id) }

func (f *Logging) ModuleIDSet(ids []ident.ModuleID) Spec { return f.delegate.ModuleIDSet(ids) }
func (f *Logging) GroupSet(groups []string) Spec         { return f.delegate.GroupSet(groups) }
func (f *Logging) ModuleSet(modules []string) Spec       { return f.delegate.ModuleSet(modules) }

func (f *Logging) AnyOf(a, b Spec) Spec {
	return f.trace("anyOf", func() Spec { return f.delegate.AnyOf(a, b) }, a, b)
}

func (f *Logging) AllOf(a, b Spec) Spec {
	return f.trace("allOf", func() Spec { return f.delegate.AllOf(a, b) }, a, b)
}

func (f *Logging) AnyOfSet(specs []Spec) Spec {
	return f.trace("anyOfSet", func() Spec { return f.delegate.AnyOfSet(specs) }, specs...)
}

func (f *Logging) AllOfSet(specs []Spec) Spec {
	return f.trace("allOfSet", func() Spec { return f.delegate.AllOfSet(specs) }, specs...)
}

func (f *Logging) trace(op string, build func() Spec, operands ...Spec) Spec {
	defer func() {
		if r := recover(); r != nil {
			if overflow, ok := r.(*OverflowError); ok && f.mode.has(TraceStackOverflow) {
				f.logger.Error("exclude spec overflow",
					"op", op,
					"depth", overflow.Depth,
					"limit", overflow.Limit,
					"stack", stackTrace(maxStackFrames))
			}
			panic(r)
		}
	}()
	result := build()
	if f.mode.has(TraceOperations) {
		f.logger.Debug("exclude spec",
			"op", op,
			"operands", specKeys(operands),
			"result", result.Key())
	}
	return result
}

func specKeys(specs []Spec) []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		if s == nil {
			keys = append(keys, "<nil>")
			continue
		}
		keys = append(keys, s.Key())
	}
	return keys
}

// stackTrace formats at most limit frames of the calling goroutine.
func stackTrace(limit int) string {
	pcs := make([]uintptr, limit+1)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	count := 0
	for {
		frame, more := frames.Next()
		if count == limit {
			b.WriteString("\t...\n")
			break
		}
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		count++
		if !more {
			break
		}
	}
	return b.String()
}
