// Package afdb is the read-only data layer of the AlphaFold cluster browser.
//
// It loads the indexed flat stores (sequences, C-alpha coordinates, pLDDT,
// descriptions, all-vs-all similarities), the NCBI taxonomy and the
// content cache described by a [config.Config], and serves record level
// lookups over them.
//
// # Startup
//
// Open builds every store and the taxonomy concurrently and returns once
// all of them are ready, or with the first error:
//
//	cfg := config.Default()
//	cfg.ApplyEnv(os.LookupEnv)
//	data, err := afdb.Open(ctx, cfg, afdb.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer data.Close()
//
// Start does the same in the background and returns a [Loader] whose Wait
// blocks until the data is ready. Nothing is served from a partially
// loaded Data.
//
// # Lookups
//
//	s, err := data.Structure("A0A009")
//	coords := s.FormattedCoordinates()
//
// The underlying components are available through Store, Tree and Cache
// for queries not covered here.
package afdb
