package excludes

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingIsSafeForConcurrentUse(t *testing.T) {
	f := NewChain()
	a := f.AnyOf(f.Group("a"), f.Module("x"))
	b := f.AnyOf(f.Group("b"), f.Module("y"))

	const workers = 16
	results := make([]Spec, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = f.AllOf(a, b)
			} else {
				results[i] = f.AllOf(b, a)
			}
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}

func TestCachingStats(t *testing.T) {
	f := NewChain()
	a, b := f.Group("a"), f.Module("x")

	f.AnyOf(a, b)
	f.AnyOf(b, a)
	f.AnyOf(a, b)

	var anyOf CacheStats
	for _, s := range f.Cache().Stats() {
		if s.Name == "anyOf" {
			anyOf = s
		}
	}
	assert.Equal(t, uint64(1), anyOf.Misses)
	assert.Equal(t, uint64(2), anyOf.Hits)
	assert.Equal(t, 1, anyOf.Entries)
}

func TestCacheCollector(t *testing.T) {
	f := NewChain()
	f.AnyOf(f.Group("a"), f.Group("b"))

	// three series for each of the four caches
	assert.Equal(t, 12, testutil.CollectAndCount(NewCacheCollector(f.Cache())))
}

func TestFirstStoredValueWins(t *testing.T) {
	c := newSpecCache[string]("test")
	first := NewBaseFactory(0).Group("a")
	second := NewBaseFactory(0).Group("a")

	got := c.get("k", func() Spec {
		// a reentrant computation stores a value for the same key first
		c.get("k", func() Spec { return first })
		return second
	})
	assert.Same(t, first, got)

	got = c.get("k", func() Spec { return NewBaseFactory(0).Group("a") })
	assert.Same(t, first, got)
}

func nestedSpec(b *BaseFactory, depth int) Spec {
	s := b.Group("g")
	for i := 1; i < depth; i++ {
		if i%2 == 0 {
			s = b.AnyOf(s, b.Module("m"))
		} else {
			s = b.AllOf(s, b.Module("m"))
		}
	}
	return s
}

func TestBaseFactoryGuardsDepth(t *testing.T) {
	b := NewBaseFactory(3)
	s := nestedSpec(b, 3)
	require.Equal(t, 3, s.Depth())

	_, err := Recover(func() Spec { return b.AnyOf(s, b.Module("z")) })
	var overflow *OverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, 4, overflow.Depth)
	assert.Equal(t, 3, overflow.Limit)
	assert.Contains(t, err.Error(), "nesting depth 4 exceeds limit 3")
}

func TestRecoverPropagatesOtherPanics(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = Recover(func() Spec { panic("boom") })
	})
}

func TestLoggingRecordsOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := NewChain(WithTrace(logger, TraceOperations))

	// merged into a set above the logging layer, never traced
	f.AnyOf(f.Group("a"), f.Group("b"))
	assert.Empty(t, buf.String())

	f.AnyOf(f.Group("a"), f.Module("x"))
	out := buf.String()
	assert.Contains(t, out, "op=anyOfSet")
	assert.Contains(t, out, "result=anyOf{group(a);module(x)}")
}

func TestLoggingReportsOverflow(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	b := NewBaseFactory(2)
	l := NewLogging(b, logger, TraceStackOverflow)

	s := nestedSpec(b, 2)
	_, err := Recover(func() Spec { return l.AllOf(s, b.Module("z")) })

	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	out := buf.String()
	assert.Contains(t, out, "exclude spec overflow")
	assert.Contains(t, out, "op=allOf")
	assert.Contains(t, out, "stack=")
}

func TestLoggingSkipsUntracedOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := NewBaseFactory(0)
	l := NewLogging(b, logger, TraceStackOverflow)

	l.AnyOf(b.Group("a"), b.Group("b"))
	assert.Empty(t, buf.String())
}

func TestStackTraceIsTruncated(t *testing.T) {
	var recurse func(n int) string
	recurse = func(n int) string {
		if n == 0 {
			return stackTrace(5)
		}
		return recurse(n - 1)
	}
	trace := recurse(20)
	assert.Contains(t, trace, "\t...\n")
	assert.Equal(t, 5*2+1, bytes.Count([]byte(trace), []byte("\n")))
}

func TestParseTraceMode(t *testing.T) {
	tests := []struct {
		input   string
		want    TraceMode
		wantErr bool
	}{
		{"", TraceOff, false},
		{"all", TraceAll, false},
		{"STACKOVERFLOW", TraceStackOverflow, false},
		{"operations", TraceOperations, false},
		{"verbose", TraceOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTraceMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTraceModeFromEnv(t *testing.T) {
	t.Setenv(TraceEnv, "operations")
	mode, err := TraceModeFromEnv()
	require.NoError(t, err)
	assert.Equal(t, TraceOperations, mode)
	assert.Equal(t, "operations", mode.String())
}
