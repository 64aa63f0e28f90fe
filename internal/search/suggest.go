package search

import (
	"sort"
	"strings"

	"fedramphub/internal/util"
)

// Suggest completes a partial control id. Prefix matches come first in id
// order; remaining slots are filled with ids whose token-sort similarity to
// the input is above the engine threshold, best first.
func (e *Engine) Suggest(partial string, limit int) []string {
	out := []string{}
	partial = strings.TrimSpace(partial)
	if partial == "" || limit <= 0 {
		return out
	}

	q := newQuery(partial, false)
	taken := map[string]struct{}{}
	for _, id := range e.catalog.IDs() {
		if len(out) == limit {
			return out
		}
		if q.matchesID(id) {
			out = append(out, id)
			taken[id] = struct{}{}
		}
	}

	type scored struct {
		id    string
		score int
	}
	fuzzy := []scored{}
	for _, id := range e.catalog.IDs() {
		if _, ok := taken[id]; ok {
			continue
		}
		if s := util.TokenSortRatio(q.upper, id); s > e.threshold {
			fuzzy = append(fuzzy, scored{id: id, score: s})
		}
	}
	sort.Slice(fuzzy, func(i, j int) bool {
		if fuzzy[i].score != fuzzy[j].score {
			return fuzzy[i].score > fuzzy[j].score
		}
		return fuzzy[i].id < fuzzy[j].id
	})
	for _, f := range fuzzy {
		if len(out) == limit {
			break
		}
		out = append(out, f.id)
	}
	return out
}
