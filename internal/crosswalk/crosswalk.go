// Package crosswalk compares two control id collections drawn from different
// sources.
package crosswalk

import (
	"sort"
	"strings"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
)

// Result holds three disjoint sorted id sets and the per-family tally.
type Result struct {
	Both      []string                   `json:"both"`
	LeftOnly  []string                   `json:"leftOnly"`
	RightOnly []string                   `json:"rightOnly"`
	Families  []internal.FamilyBreakdown `json:"families"`
}

// Analyze computes both = left ∩ right, leftOnly = left − right and
// rightOnly = right − left. Duplicate ids in either input count once. Empty
// inputs give an empty result.
func Analyze(left, right []string) Result {
	l, r := toSet(left), toSet(right)
	res := Result{Both: []string{}, LeftOnly: []string{}, RightOnly: []string{}}

	for id := range l {
		if _, ok := r[id]; ok {
			res.Both = append(res.Both, id)
		} else {
			res.LeftOnly = append(res.LeftOnly, id)
		}
	}
	for id := range r {
		if _, ok := l[id]; !ok {
			res.RightOnly = append(res.RightOnly, id)
		}
	}
	sort.Strings(res.Both)
	sort.Strings(res.LeftOnly)
	sort.Strings(res.RightOnly)

	res.Families = breakdown(res)
	return res
}

// Union is |left ∪ right|.
func (r Result) Union() int {
	return len(r.Both) + len(r.LeftOnly) + len(r.RightOnly)
}

// Rows flattens the result into one row per id, sorted by id.
func (r Result) Rows() []internal.CrosswalkRow {
	out := make([]internal.CrosswalkRow, 0, r.Union())
	for _, id := range r.Both {
		out = append(out, internal.CrosswalkRow{ControlID: id, InLeft: true, InRight: true, Status: internal.StatusBoth})
	}
	for _, id := range r.LeftOnly {
		out = append(out, internal.CrosswalkRow{ControlID: id, InLeft: true, Status: internal.StatusLeftOnly})
	}
	for _, id := range r.RightOnly {
		out = append(out, internal.CrosswalkRow{ControlID: id, InRight: true, Status: internal.StatusRightOnly})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControlID < out[j].ControlID })
	return out
}

func breakdown(r Result) []internal.FamilyBreakdown {
	tally := map[string]*internal.FamilyBreakdown{}
	get := func(id string) *internal.FamilyBreakdown {
		fam := controlid.Family(id)
		b, ok := tally[fam]
		if !ok {
			b = &internal.FamilyBreakdown{Family: fam}
			tally[fam] = b
		}
		b.Total++
		return b
	}
	for _, id := range r.Both {
		get(id).Both++
	}
	for _, id := range r.LeftOnly {
		get(id).LeftOnly++
	}
	for _, id := range r.RightOnly {
		get(id).RightOnly++
	}

	out := make([]internal.FamilyBreakdown, 0, len(tally))
	for _, b := range tally {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Family < out[j].Family })
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// BaselineIDs returns the sorted canonical ids listed on one baseline sheet.
// The sheet matches case-insensitively by prefix, so "Low" selects
// "Low Baseline". Rows whose id does not normalize are left out.
func BaselineIDs(rows []internal.BaselineRow, sheet string) []string {
	want := strings.ToLower(strings.TrimSpace(sheet))
	set := map[string]struct{}{}
	for _, row := range rows {
		if want == "" || !strings.HasPrefix(strings.ToLower(row.Sheet), want) {
			continue
		}
		id, err := controlid.Normalize(row.Fields[internal.ColumnSortID])
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
