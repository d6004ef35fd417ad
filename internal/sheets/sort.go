package sheets

import (
	"sort"

	"github.com/jjenkins/billtracker/internal/model"
)

var boroughRank = map[string]int{
	"Brooklyn":            0,
	"Manhattan":           1,
	"Manhattan and Bronx": 2,
	"Queens":              3,
	"Bronx":               4,
	"Staten Island":       5,
}

const (
	unlistedBoroughRank = 6
	missingBoroughRank  = 7
)

// BoroughRank returns the sort position of a borough. Unrecognized boroughs
// sort after all listed ones, and a missing borough sorts last.
func BoroughRank(borough string) int {
	if borough == "" {
		return missingBoroughRank
	}
	if rank, ok := boroughRank[borough]; ok {
		return rank
	}
	return unlistedBoroughRank
}

// SortByBorough orders legislators by borough precedence, then by name. The
// input slice is not modified.
func SortByBorough(legislators []model.Legislator) []model.Legislator {
	sorted := append([]model.Legislator(nil), legislators...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := BoroughRank(sorted[i].Borough), BoroughRank(sorted[j].Borough)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
