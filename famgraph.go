// Package famgraph reconstructs a family graph from the rows of a genealogy
// sheet.
//
// The sheet has one row per person. The name cell carries the structure: a
// run of '*' gives the generation below the two root ancestors, and rows
// without markers are either first generation people or partners marked with
// '~' (married), '-/-' (divorced), '- -' (child from a partner) or '-'
// (dating). GroupRows trims the sheet and splits it into family groups, and
// Build walks the groups in order to produce a FamilyGraph.
package famgraph

// Result is the outcome of Ingest.
type Result struct {
	Graph    *FamilyGraph
	Grouping Grouping
}

// Warning returns the non-fatal InsufficientInput condition, if any.
func (r *Result) Warning() error {
	return r.Grouping.Warning()
}

// Ingest groups rows and builds the graph under the two root ancestors. A
// sheet too short to trim produces a graph holding only the roots together
// with a warning on the result.
func Ingest(rows []Row, rootA, rootB Person, grouping GroupOptions, opts ...Option) (*Result, error) {
	groups := GroupRows(rows, grouping)
	g, err := Build(rootA, rootB, groups.Groups, opts...)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: g, Grouping: groups}, nil
}
