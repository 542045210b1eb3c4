package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meigma/afdb/taxonomy"
)

type taxonResult struct {
	ID     uint32 `json:"id"`
	Parent uint32 `json:"parent"`
	Rank   string `json:"rank"`
	Name   string `json:"name"`
}

func toResults(nodes []taxonomy.Node) []taxonResult {
	out := make([]taxonResult, len(nodes))
	for i, n := range nodes {
		out[i] = taxonResult{ID: n.ID, Parent: n.ParentID, Rank: n.RankName(), Name: n.Name}
	}
	return out
}

func parseTaxIDs(args []string) ([]uint32, error) {
	ids := make([]uint32, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid taxon id %q", a)
		}
		ids[i] = uint32(v)
	}
	return ids, nil
}

func newTaxonomyCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Build and query the NCBI taxonomy",
	}

	var dumps, out string
	build := &cobra.Command{
		Use:   "build",
		Short: "Build a snapshot from nodes.dmp and names.dmp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			logger, err := g.logger(cmd)
			if err != nil {
				return err
			}
			if dumps == "" {
				dumps = cfg.DumpDir()
			}
			if out == "" {
				out = cfg.SnapshotPath()
			}
			t, err := taxonomy.Build(dumps, taxonomy.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := taxonomy.WriteSnapshot(t, out); err != nil {
				return err
			}
			logger.Info("snapshot written", "path", out, "format", taxonomy.SnapshotFormat(out).String(), "nodes", t.Len())
			return nil
		},
	}
	build.Flags().StringVar(&dumps, "dumps", "", "directory holding the NCBI dumps")
	build.Flags().StringVar(&out, "out", "", "snapshot path; .fb selects FlatBuffers, .zst/.lz4/.gz compress")

	lineage := &cobra.Command{
		Use:   "lineage TAXID",
		Short: "Print a taxon and its ancestors up to the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := g.tree(cmd)
			if err != nil {
				return err
			}
			ids, err := parseTaxIDs(args)
			if err != nil {
				return err
			}
			n, ok := t.Node(ids[0])
			if !ok {
				return fmt.Errorf("taxon %d: %w", ids[0], taxonomy.ErrUnknownTaxon)
			}
			return writeJSON(cmd.OutOrStdout(), toResults(t.Lineage(n)))
		},
	}

	var ranks []string
	collapse := &cobra.Command{
		Use:   "collapse TAXID...",
		Short: "Print the rank-collapsed graph of the given taxa",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := g.tree(cmd)
			if err != nil {
				return err
			}
			ids, err := parseTaxIDs(args)
			if err != nil {
				return err
			}
			var opts []taxonomy.CollapseOption
			if len(ranks) > 0 {
				allowed := make([]taxonomy.Rank, 0, len(ranks))
				for _, name := range ranks {
					r := taxonomy.ParseRank(name)
					if r == taxonomy.RankUnknown {
						return fmt.Errorf("unknown rank %q", name)
					}
					allowed = append(allowed, r)
				}
				opts = append(opts, taxonomy.WithRanks(allowed...))
			}
			return writeJSON(cmd.OutOrStdout(), t.Collapse(ids, opts...))
		},
	}
	collapse.Flags().StringSliceVar(&ranks, "ranks", nil, "rank allow-list (default superkingdom,kingdom,phylum,family,genus,species)")

	var limit int
	suggest := &cobra.Command{
		Use:   "suggest QUERY TAXID...",
		Short: "Suggest taxa on the lineages of the given taxa whose name contains QUERY",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := g.tree(cmd)
			if err != nil {
				return err
			}
			ids, err := parseTaxIDs(args[1:])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), toResults(t.Suggest(ids, args[0], limit)))
		},
	}
	suggest.Flags().IntVar(&limit, "limit", taxonomy.DefaultSuggestLimit, "maximum suggestions")

	cmd.AddCommand(build, lineage, collapse, suggest)
	return cmd
}

// tree loads the snapshot, building it from the dumps when missing.
func (g *globals) tree(cmd *cobra.Command) (*taxonomy.Tree, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return nil, err
	}
	return taxonomy.LoadOrBuild(cfg.SnapshotPath(), cfg.DumpDir(), taxonomy.WithLogger(logger))
}
