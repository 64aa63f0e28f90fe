package search

import (
	"fmt"
	"sort"
	"strings"

	"fedramphub/internal"
)

// Tristate narrows results on a boolean entry property.
type Tristate string

const (
	Any  Tristate = "all"
	Yes  Tristate = "yes"
	None Tristate = "no"
)

// ParseTristate accepts the CLI spellings of the filter values.
func ParseTristate(s string) (Tristate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return Any, nil
	case "yes", "in", "has", "true":
		return Yes, nil
	case "no", "out", "none", "false":
		return None, nil
	}
	return Any, fmt.Errorf("invalid filter value %q", s)
}

func (t Tristate) open() bool { return t != Yes && t != None }

func (t Tristate) keep(v bool) bool {
	switch t {
	case Yes:
		return v
	case None:
		return !v
	}
	return true
}

type Filter struct {
	// Families are family codes such as "AC".
	Families []string
	// Baselines match case-insensitively by prefix, so "Low" selects
	// "Low Baseline".
	Baselines []string
	Indicator Tristate
	Parameter Tristate
}

// Empty reports whether the filter lets everything through.
func (f Filter) Empty() bool {
	return len(f.Families) == 0 && len(f.Baselines) == 0 && f.Indicator.open() && f.Parameter.open()
}

// Apply keeps the results that pass every filter, preserving order.
func (f Filter) Apply(results []internal.SearchResult) []internal.SearchResult {
	out := make([]internal.SearchResult, 0, len(results))
	for _, r := range results {
		if f.Match(r.Entry) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) Match(e *internal.CatalogEntry) bool {
	if e == nil {
		return false
	}
	if len(f.Families) > 0 && !containsFold(f.Families, e.FamilyCode) {
		return false
	}
	if len(f.Baselines) > 0 && !inBaselines(f.Baselines, e.Baselines) {
		return false
	}
	return f.Indicator.keep(e.InIndicator) && f.Parameter.keep(e.HasParameter)
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func inBaselines(wanted, have []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		for _, h := range have {
			if strings.HasPrefix(strings.ToLower(h), w) {
				return true
			}
		}
	}
	return false
}

// Limit returns at most n results; n <= 0 means no limit.
func Limit(results []internal.SearchResult, n int) []internal.SearchResult {
	if n <= 0 || len(results) <= n {
		return results
	}
	return results[:n]
}

// Summary is the analytics view of a result set.
type Summary struct {
	Total         int            `json:"total"`
	ByFamily      map[string]int `json:"byFamily"`
	ByBaseline    map[string]int `json:"byBaseline"`
	InIndicator   int            `json:"inIndicator"`
	WithParameter int            `json:"withParameter"`
}

func Summarize(results []internal.SearchResult) Summary {
	s := Summary{Total: len(results), ByFamily: map[string]int{}, ByBaseline: map[string]int{}}
	for _, r := range results {
		if r.Entry == nil {
			continue
		}
		s.ByFamily[r.Entry.FamilyCode]++
		for _, b := range r.Entry.Baselines {
			s.ByBaseline[b]++
		}
		if r.Entry.InIndicator {
			s.InIndicator++
		}
		if r.Entry.HasParameter {
			s.WithParameter++
		}
	}
	return s
}

// SortedKeys returns the keys of a count map in ascending order.
func SortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
