package domain

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering applied by QueryDonors.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByNameDesc  SortKey = "name_desc"
	SortByBloodType SortKey = "blood_type"
	SortByStatus    SortKey = "status"
)

// Query narrows and orders a donor collection. Filters are conjunctive;
// zero values leave their dimension unconstrained. An unknown SortKey
// falls back to SortByName.
type Query struct {
	Search    string
	BloodType BloodType
	GroupID   string
	Sort      SortKey
}

// QueryDonors applies the query to a donor collection and returns a new
// slice. The input is never mutated, and ordering is deterministic for
// a fixed now, so re-running a query is idempotent.
func QueryDonors(donors []Donor, q Query, now time.Time) []Donor {
	out := make([]Donor, 0, len(donors))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, d := range donors {
		if q.BloodType != "" && d.BloodType != q.BloodType {
			continue
		}
		if q.GroupID != "" && !d.InGroup(q.GroupID) {
			continue
		}
		if needle != "" && !matchesSearch(d, needle) {
			continue
		}
		out = append(out, d)
	}
	sortDonors(out, q.Sort, now)
	return out
}

func matchesSearch(d Donor, needle string) bool {
	return strings.Contains(strings.ToLower(d.Name), needle) ||
		strings.Contains(strings.ToLower(d.Phone), needle) ||
		strings.Contains(strings.ToLower(string(d.BloodType)), needle)
}

func sortDonors(donors []Donor, key SortKey, now time.Time) {
	coll := collate.New(language.Und, collate.IgnoreCase)
	// Ties always fall through to the immutable ID so equal-name donors
	// keep a stable relative order across runs.
	byName := func(a, b Donor) int {
		if c := coll.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
	switch key {
	case SortByNameDesc:
		sort.SliceStable(donors, func(i, j int) bool {
			return byName(donors[j], donors[i]) < 0
		})
	case SortByBloodType:
		sort.SliceStable(donors, func(i, j int) bool {
			ri, rj := donors[i].BloodType.rank(), donors[j].BloodType.rank()
			if ri != rj {
				return ri < rj
			}
			return byName(donors[i], donors[j]) < 0
		})
	case SortByStatus:
		sort.SliceStable(donors, func(i, j int) bool {
			ei, ej := donors[i].Eligible(now), donors[j].Eligible(now)
			if ei != ej {
				return ei
			}
			return byName(donors[i], donors[j]) < 0
		})
	default:
		sort.SliceStable(donors, func(i, j int) bool {
			return byName(donors[i], donors[j]) < 0
		})
	}
}
