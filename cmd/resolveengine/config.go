package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/albertocavalcante/go-resolveengine/excludes"
)

// envPrefix is the prefix of the environment variables read by the CLI.
// RESOLVEENGINE_TRACE_EXCLUDES maps to trace_excludes, like the library knob.
const envPrefix = "RESOLVEENGINE_"

// config is the merged CLI configuration.
type config struct {
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
	Output          string `koanf:"output"`
	TraceExcludes   string `koanf:"trace_excludes"`
	MaxExcludeDepth int    `koanf:"max_exclude_depth"`
	Conflicts       string `koanf:"conflicts"`
	Versions        string `koanf:"versions"`
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":         "warn",
		"log_format":        "text",
		"output":            "text",
		"trace_excludes":    "",
		"max_exclude_depth": excludes.DefaultMaxDepth,
		"conflicts":         "",
		"versions":          "",
	}
}

// loadConfig layers defaults, RESOLVEENGINE_* environment variables and
// explicitly set flags, in that order.
func loadConfig(flags *pflag.FlagSet) (*config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Environment
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// 3. Flags; unchanged flags keep the values loaded above.
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *config) validate() error {
	switch c.Output {
	case "text", "json", "dot":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or dot)", c.Output)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if _, err := excludes.ParseTraceMode(c.TraceExcludes); err != nil {
		return err
	}
	return nil
}

func (c *config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// logger builds the slog logger writing to w.
func (c *config) logger(w io.Writer) *slog.Logger {
	level, _ := c.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *config) traceMode() excludes.TraceMode {
	mode, _ := excludes.ParseTraceMode(c.TraceExcludes)
	return mode
}
