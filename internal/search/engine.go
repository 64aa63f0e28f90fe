package search

import (
	"fmt"
	"sort"
	"strings"

	"fedramphub/internal"
	"fedramphub/internal/catalog"
	"fedramphub/internal/controlid"
	"fedramphub/internal/util"
)

const (
	DefaultThreshold = 70

	scoreID          = 100
	scoreName        = 90
	scoreDescription = 80
)

type Options struct {
	Fields        []internal.SearchField
	Fuzzy         bool
	CaseSensitive bool
}

// DefaultOptions searches ids and names with fuzzy matching on.
func DefaultOptions() Options {
	return Options{Fields: []internal.SearchField{internal.FieldID, internal.FieldName}, Fuzzy: true}
}

// ParseFields maps field names to search fields, dropping duplicates.
func ParseFields(names []string) ([]internal.SearchField, error) {
	out := []internal.SearchField{}
	seen := map[internal.SearchField]struct{}{}
	for _, name := range names {
		f := internal.SearchField(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case internal.FieldID, internal.FieldName, internal.FieldDescription:
		default:
			return nil, fmt.Errorf("unknown search field %q", name)
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// Engine ranks catalog entries against free-text queries. It only reads the
// catalog, so one Engine may serve any number of queries.
type Engine struct {
	catalog   *catalog.Catalog
	threshold int
}

// NewEngine returns an engine over cat. Fuzzy matches must score strictly
// above threshold; a negative threshold selects DefaultThreshold.
func NewEngine(cat *catalog.Catalog, threshold int) *Engine {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Engine{catalog: cat, threshold: threshold}
}

func (e *Engine) Threshold() int { return e.threshold }

// Search scores every entry and returns the matches by descending score, then
// ascending id. An empty query yields no results.
func (e *Engine) Search(query string, opts Options) []internal.SearchResult {
	query = strings.TrimSpace(query)
	out := []internal.SearchResult{}
	if query == "" || len(opts.Fields) == 0 {
		return out
	}

	q := newQuery(query, opts.CaseSensitive)
	for _, entry := range e.catalog.Entries() {
		score, ok := e.score(q, entry, opts)
		if !ok {
			continue
		}
		out = append(out, internal.SearchResult{ID: entry.ID, Entry: entry, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type query struct {
	text          string
	upper         string
	canonical     string
	caseSensitive bool
}

func newQuery(text string, caseSensitive bool) query {
	q := query{text: text, upper: strings.ToUpper(text), caseSensitive: caseSensitive}
	if id, err := controlid.Normalize(text); err == nil {
		q.canonical = id
	}
	if !caseSensitive {
		q.text = strings.ToLower(text)
	}
	return q
}

func (q query) matchesID(id string) bool {
	if strings.HasPrefix(id, q.upper) {
		return true
	}
	return q.canonical != "" && strings.HasPrefix(id, q.canonical)
}

func (q query) fold(s string) string {
	if q.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (e *Engine) score(q query, entry *internal.CatalogEntry, opts Options) (int, bool) {
	best, matched := 0, false
	for _, field := range opts.Fields {
		var value string
		var exactScore int
		switch field {
		case internal.FieldID:
			if q.matchesID(entry.ID) {
				return scoreID, true
			}
			continue
		case internal.FieldName:
			value, exactScore = entry.Name, scoreName
		case internal.FieldDescription:
			value, exactScore = entry.Description, scoreDescription
		default:
			continue
		}
		if value == "" {
			continue
		}

		value = q.fold(value)
		s := 0
		if opts.Fuzzy {
			if r := util.PartialRatio(q.text, value); r > e.threshold {
				s = r
			}
		} else if strings.Contains(value, q.text) {
			s = exactScore
		}
		if s > 0 {
			matched = true
			if s > best {
				best = s
			}
		}
	}
	return best, matched
}
