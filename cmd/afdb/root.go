package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/meigma/afdb/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// globals holds the persistent flags.
type globals struct {
	configPath string
	dataPath   string
	cachePath  string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "afdb",
		Short:         "Inspect AlphaFold cluster browser data files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML data layout (defaults to the built-in layout)")
	pf.StringVar(&g.dataPath, "data-path", "", "data directory, overrides config and DATA_PATH")
	pf.StringVar(&g.cachePath, "cache-path", "", "cache directory, overrides config and CACHE_PATH")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newConfigCmd(g),
		newStoreCmd(g),
		newStructureCmd(g),
		newTaxonomyCmd(g),
		newCacheCmd(g),
		newProfileCmd(g),
	)
	return root
}

// config resolves the layout: file (or defaults), then environment, then
// flags.
func (g *globals) config() (config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if g.dataPath != "" {
		cfg.DataPath = g.dataPath
	}
	if g.cachePath != "" {
		cfg.CachePath = g.cachePath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// logger writes to the command's stderr.
func (g *globals) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
