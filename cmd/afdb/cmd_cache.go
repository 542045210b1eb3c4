package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/afdb/cache"
)

func newCacheCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the content cache",
	}

	openCache := func(cmd *cobra.Command) (*cache.Cache, error) {
		cfg, err := g.config()
		if err != nil {
			return nil, err
		}
		logger, err := g.logger(cmd)
		if err != nil {
			return nil, err
		}
		return cache.New(cfg.CachePath,
			cache.WithMaxAge(cfg.Cache.MaxAge),
			cache.WithAutoCleanup(false),
			cache.WithLogger(logger))
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Delete entries older than cache.max_age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Stop()
			removed, err := c.Cleanup()
			if err != nil {
				return err
			}
			remaining, err := c.Len()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"removed": removed, "remaining": remaining})
		},
	}

	stat := &cobra.Command{
		Use:   "stat",
		Short: "Print the number of cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Stop()
			n, err := c.Len()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"dir": c.Dir(), "entries": n})
		},
	}

	cmd.AddCommand(sweep, stat)
	return cmd
}
