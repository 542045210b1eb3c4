package taxonomy

import "fmt"

// Rank is a taxonomic rank. The numeric values are the persisted encoding
// and must not be reordered.
type Rank uint8

// Ranks in persisted order.
const (
	RankNone Rank = iota
	RankForma
	RankVarietas
	RankSubspecies
	RankSpecies
	RankSpeciesSubgroup
	RankSpeciesGroup
	RankSubgenus
	RankGenus
	RankSubtribe
	RankTribe
	RankSubfamily
	RankFamily
	RankSuperfamily
	RankParvorder
	RankInfraorder
	RankSuborder
	RankOrder
	RankSuperorder
	RankInfraclass
	RankSubclass
	RankClass
	RankSuperclass
	RankSubphylum
	RankPhylum
	RankSuperphylum
	RankSubkingdom
	RankKingdom
	RankSuperkingdom
	RankFormaSpecialis
	RankStrain
	RankSerotype
	RankSerogroup
	RankIsolate
	RankClade
	RankSection
	RankGenotype
	RankMorph
	RankBiotype
	RankSubcohort
	RankPathogroup
	RankSubsection
	RankCohort
	RankSeries

	numRanks
)

// RankUnknown holds rank names missing from the enumeration.
const RankUnknown Rank = 255

var rankNames = [numRanks]string{
	"no rank",
	"forma",
	"varietas",
	"subspecies",
	"species",
	"species subgroup",
	"species group",
	"subgenus",
	"genus",
	"subtribe",
	"tribe",
	"subfamily",
	"family",
	"superfamily",
	"parvorder",
	"infraorder",
	"suborder",
	"order",
	"superorder",
	"infraclass",
	"subclass",
	"class",
	"superclass",
	"subphylum",
	"phylum",
	"superphylum",
	"subkingdom",
	"kingdom",
	"superkingdom",
	"forma specialis",
	"strain",
	"serotype",
	"serogroup",
	"isolate",
	"clade",
	"section",
	"genotype",
	"morph",
	"biotype",
	"subcohort",
	"pathogroup",
	"subsection",
	"cohort",
	"series",
}

var rankByName = func() map[string]Rank {
	m := make(map[string]Rank, numRanks)
	for i, name := range rankNames {
		m[name] = Rank(i)
	}
	return m
}()

// ParseRank maps an NCBI rank name to its Rank. Unrecognized names map to
// RankUnknown.
func ParseRank(name string) Rank {
	if r, ok := rankByName[name]; ok {
		return r
	}
	return RankUnknown
}

// Known reports whether r is part of the enumeration.
func (r Rank) Known() bool {
	return r < numRanks
}

// String returns the NCBI rank name.
func (r Rank) String() string {
	if r.Known() {
		return rankNames[r]
	}
	if r == RankUnknown {
		return "unknown"
	}
	return fmt.Sprintf("rank(%d)", uint8(r))
}

// Ranks returns every known rank in persisted order.
func Ranks() []Rank {
	out := make([]Rank, numRanks)
	for i := range out {
		out[i] = Rank(i)
	}
	return out
}

// normalizeRank folds persisted values outside the enumeration into
// RankUnknown.
func normalizeRank(v uint8) Rank {
	if r := Rank(v); r.Known() {
		return r
	}
	return RankUnknown
}
