//go:generate flatc --go --go-namespace fb -o internal schema/taxonomy.fbs

// Package taxonomy holds the NCBI taxonomy as an in-memory parent-pointer
// tree.
//
// A Tree is built once, from the NCBI nodes.dmp and names.dmp dumps (Build)
// or from a snapshot written by WriteSnapshot (ReadSnapshot), and is then
// read-only. Every method is safe for concurrent use.
//
// On top of lineage queries the package provides the rank-collapsed graph
// used to render member taxonomies (Collapse), name suggestions over member
// lineages (Suggest), and subtree filtering (FilterDescendants).
package taxonomy
