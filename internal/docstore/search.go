package docstore

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"fedramphub/internal"
)

const (
	DefaultMaxMatches   = 5
	DefaultContextChars = 100
)

var ErrEmptyQuery = errors.New("empty query")

type Query struct {
	Text          string
	Regex         bool
	CaseSensitive bool
	// Category restricts the search; empty means every category.
	Category     internal.DocumentCategory
	MaxMatches   int
	ContextChars int
}

// Compile turns the query into a pattern. Literal queries are escaped.
func (q Query) Compile() (*regexp.Regexp, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	expr := q.Text
	if !q.Regex {
		expr = regexp.QuoteMeta(expr)
	}
	if !q.CaseSensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

type Match struct {
	Offset  int    `json:"offset"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

type Hit struct {
	Document internal.Document `json:"document"`
	// Total counts every match; Matches holds only the first few.
	Total   int     `json:"total"`
	Matches []Match `json:"matches"`
}

// Search returns the documents containing the query, in id order, each with
// context windows around its first matches.
func (s *Store) Search(q Query) ([]Hit, error) {
	re, err := q.Compile()
	if err != nil {
		return nil, err
	}
	maxMatches := q.MaxMatches
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}
	window := q.ContextChars
	if window <= 0 {
		window = DefaultContextChars
	}

	out := []Hit{}
	for _, d := range s.docs {
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		locs := re.FindAllStringIndex(d.Content, -1)
		if len(locs) == 0 {
			continue
		}
		hit := Hit{Document: d, Total: len(locs)}
		for _, loc := range locs[:min(len(locs), maxMatches)] {
			hit.Matches = append(hit.Matches, Match{
				Offset:  loc[0],
				Text:    d.Content[loc[0]:loc[1]],
				Context: contextWindow(d.Content, loc[0], loc[1], window),
			})
		}
		out = append(out, hit)
	}
	return out, nil
}

// contextWindow returns up to n bytes either side of [start, end), widened to
// rune boundaries.
func contextWindow(text string, start, end, n int) string {
	from := max(0, start-n)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	to := min(len(text), end+n)
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

// Highlight wraps every match of the query in the given markers.
func Highlight(text string, q Query, before, after string) (string, error) {
	re, err := q.Compile()
	if err != nil {
		return "", err
	}
	return re.ReplaceAllStringFunc(text, func(m string) string { return before + m + after }), nil
}

func CountMatches(text string, q Query) (int, error) {
	re, err := q.Compile()
	if err != nil {
		return 0, err
	}
	return len(re.FindAllStringIndex(text, -1)), nil
}
