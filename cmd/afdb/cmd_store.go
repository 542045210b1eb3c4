package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/afdb"
	"github.com/meigma/afdb/store"
)

type lookupResult struct {
	Store   string `json:"store"`
	Key     string `json:"key"`
	Found   bool   `json:"found"`
	Pos     int    `json:"pos"`
	Offset  uint64 `json:"offset,omitempty"`
	Length  uint64 `json:"length,omitempty"`
	Payload string `json:"payload,omitempty"`
}

func newStoreCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Query an indexed flat store",
	}

	var withPayload bool
	lookup := &cobra.Command{
		Use:   "lookup NAME KEY...",
		Short: "Look keys up in the store NAME",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openStore(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			results := make([]lookupResult, 0, len(args)-1)
			for _, key := range args[1:] {
				pos, found := s.LookupString(key)
				r := lookupResult{Store: s.Name(), Key: key, Found: found, Pos: pos}
				if found {
					r.Offset, r.Length = s.OffsetAt(pos), s.LengthAt(pos)
					if withPayload {
						b, err := s.Payload(pos)
						if err != nil {
							return err
						}
						r.Payload = string(b)
					}
				}
				results = append(results, r)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	lookup.Flags().BoolVar(&withPayload, "payload", false, "include the record payload")

	stat := &cobra.Command{
		Use:   "stat NAME",
		Short: "Print entry count, key kind and key range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openStore(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			out := map[string]any{
				"store":   s.Name(),
				"entries": s.Size(),
				"keys":    s.Kind().String(),
				"data":    s.HasData(),
			}
			if s.Size() > 0 {
				out["first"] = s.KeyAt(0).String()
				out["last"] = s.KeyAt(s.Size() - 1).String()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(lookup, stat)
	return cmd
}

func (g *globals) openStore(cmd *cobra.Command, name string) (*store.Store, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return nil, err
	}
	return afdb.OpenStore(cfg, name, logger)
}
