package afdb

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/meigma/afdb/config"
	"github.com/meigma/afdb/coords"
	"github.com/meigma/afdb/store"
)

// Structure is one predicted structure.
type Structure struct {
	Accession string
	// Seq is the amino acid sequence, one letter per residue.
	Seq string
	// Coordinates holds the C-alpha trace as len(Seq) X values, then Y,
	// then Z, in angstroms.
	Coordinates []float32
	// PLDDT is the per-residue confidence string as stored.
	PLDDT string
}

// FormattedCoordinates renders Coordinates with three decimals.
func (s Structure) FormattedCoordinates() []string {
	return coords.FormatFixed(s.Coordinates)
}

// Similar is one all-vs-all hit of a cluster.
type Similar struct {
	Accession string
	EValue    float64
}

// Description returns the description of accession, or "" when it has
// none.
func (d *Data) Description(accession string) (string, error) {
	s, err := d.store(config.StoreDescriptions)
	if err != nil {
		return "", err
	}
	pos, found := s.LookupString(accession)
	if !found {
		return "", nil
	}
	b, err := s.Payload(pos)
	if err != nil {
		return "", fmt.Errorf("description %s: %w", accession, err)
	}
	return string(b), nil
}

// Structure assembles the sequence, C-alpha coordinates and pLDDT of
// accession. The accession must be present in all three stores.
func (d *Data) Structure(accession string) (Structure, error) {
	aa, aaPos, err := d.find(config.StoreSequences, accession)
	if err != nil {
		return Structure{}, err
	}
	ca, caPos, err := d.find(config.StoreCoordinates, accession)
	if err != nil {
		return Structure{}, err
	}
	plddt, plddtPos, err := d.find(config.StorePLDDT, accession)
	if err != nil {
		return Structure{}, err
	}

	// Sequence records end in a newline before the separator.
	chainLength := int(aa.LengthAt(aaPos)) - 2 //nolint:gosec // record lengths fit in int
	seq, err := aa.Payload(aaPos)
	if err != nil {
		return Structure{}, fmt.Errorf("sequence %s: %w", accession, err)
	}
	buf, err := ca.Payload(caPos)
	if err != nil {
		return Structure{}, fmt.Errorf("coordinates %s: %w", accession, err)
	}
	xyz, err := coords.Decode(buf, chainLength, int(ca.LengthAt(caPos))) //nolint:gosec // record lengths fit in int
	if err != nil {
		return Structure{}, fmt.Errorf("coordinates %s: %w", accession, err)
	}
	conf, err := plddt.Payload(plddtPos)
	if err != nil {
		return Structure{}, fmt.Errorf("plddt %s: %w", accession, err)
	}

	return Structure{
		Accession:   accession,
		Seq:         strings.TrimSuffix(string(seq), "\n"),
		Coordinates: xyz,
		PLDDT:       string(conf),
	}, nil
}

// Similars returns the all-vs-all hits of cluster in stored order. A
// cluster without hits yields an empty slice.
//
// Records are newline-terminated "accession evalue" lines.
func (d *Data) Similars(cluster string) ([]Similar, error) {
	s, err := d.store(config.StoreSimilars)
	if err != nil {
		return nil, err
	}
	pos, found := s.LookupString(cluster)
	if !found {
		return []Similar{}, nil
	}
	b, err := s.Payload(pos)
	if err != nil {
		return nil, fmt.Errorf("similars %s: %w", cluster, err)
	}
	return parseSimilars(b)
}

func parseSimilars(b []byte) ([]Similar, error) {
	out := []Similar{}
	for i, line := range bytes.Split(b, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		acc, ev, ok := bytes.Cut(line, []byte(" "))
		if !ok || len(acc) == 0 {
			return nil, fmt.Errorf("%w: similars line %d: %q", ErrMalformedRecord, i+1, line)
		}
		v, err := strconv.ParseFloat(string(ev), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: similars line %d: %w", ErrMalformedRecord, i+1, err)
		}
		out = append(out, Similar{Accession: string(acc), EValue: v})
	}
	return out, nil
}

// SimilarAccessions returns just the accessions of Similars.
func SimilarAccessions(hits []Similar) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Accession
	}
	return out
}

// find looks accession up in the named store.
func (d *Data) find(name, accession string) (*store.Store, int, error) {
	s, err := d.store(name)
	if err != nil {
		return nil, 0, err
	}
	pos, found := s.LookupString(accession)
	if !found {
		return nil, 0, fmt.Errorf("%w: %s not in %s store", ErrNotFound, accession, name)
	}
	return s, pos, nil
}
