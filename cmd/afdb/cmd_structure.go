package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/afdb"
)

type structureResult struct {
	Seq         string   `json:"seq"`
	Coordinates []string `json:"coordinates"`
	PLDDT       string   `json:"plddt"`
	Description string   `json:"description,omitempty"`
}

func newStructureCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "structure ACCESSION",
		Short: "Print sequence, C-alpha coordinates and pLDDT of a structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			s, err := d.Structure(args[0])
			if err != nil {
				return err
			}
			desc, err := d.Description(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), structureResult{
				Seq:         s.Seq,
				Coordinates: s.FormattedCoordinates(),
				PLDDT:       s.PLDDT,
				Description: desc,
			})
		},
	}
}

// open loads every component of the layout without the cache.
func (g *globals) open(cmd *cobra.Command) (*afdb.Data, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return nil, err
	}
	return afdb.Open(cmd.Context(), cfg, afdb.WithLogger(logger), afdb.WithoutCache())
}
