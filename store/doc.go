// Package store provides a read-only key to byte-range store over a large
// append-only data file.
//
// A store is built once from a tab-separated index (key, offset, length per
// line) and answers exact-match lookups by binary search. Record bytes are
// fetched with positioned reads, so a single open [Store] is safe for
// concurrent use by any number of goroutines.
//
//	s, err := store.Open("data/afdb", "data/afdb.index")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	pos, ok := s.LookupString("A0A009IHW8")
//	if ok {
//	    seq := s.Text(pos)
//	}
//
// Records carry a trailing separator byte; [Store.Payload] and [Store.Text]
// strip it, [Store.Read] returns the record verbatim.
package store
