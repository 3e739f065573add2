package famgraph

import "strings"

// Symbols used in the name column of the sheet.
const (
	GenerationMarker      = "*"
	MarriedToken          = "~"
	DivorcedToken         = "-/-"
	ChildFromPartnerToken = "- -"
	DatingToken           = "-"
)

// MarkerCount returns the generation depth encoded in a name cell.
func MarkerCount(name string) int {
	return strings.Count(name, GenerationMarker)
}

// Classify returns how a row without generation markers relates to the
// current person. Longer tokens are tested before the bare dash they contain.
func Classify(name string) Relationship {
	switch {
	case strings.Contains(name, MarriedToken):
		return Married
	case strings.Contains(name, DivorcedToken):
		return Divorced
	case strings.Contains(name, ChildFromPartnerToken):
		return ChildFromPartner
	case strings.Contains(name, DatingToken):
		return Dating
	default:
		return Relative
	}
}

// rowRelationship combines both parses: rows carrying markers always
// descend structurally.
func rowRelationship(name string) (int, Relationship) {
	generation := MarkerCount(name)
	if generation > 0 {
		return generation, Relative
	}
	return 0, Classify(name)
}
