package controlid

import (
	"regexp"
	"sort"
	"strings"

	"fedramphub/internal"
)

var (
	// Two letters, hyphen, one or two digits, then an optional .N or (N)
	// enhancement. Neither branch may cross a line break.
	controlPattern = regexp.MustCompile(`(?i)\b[a-z]{2}-\d{1,2}(?:\.\d+\b|[ \t]*\(\d+\)|\b)`)

	indicatorPattern = regexp.MustCompile(`\b` + IndicatorPrefix + `-(?:` + strings.Join(categoryCodes(), "|") + `)-\d+\b`)
)

type Extractor struct {
	// ProseOnly skips fenced code blocks and inline code spans.
	ProseOnly bool
}

func NewExtractor(proseOnly bool) *Extractor {
	return &Extractor{ProseOnly: proseOnly}
}

// Extract returns every control-shaped and indicator-shaped token in text.
// Repeats of the same raw text collapse onto the first occurrence; the result
// is ordered by byte offset.
func (x *Extractor) Extract(documentID, text string) []internal.RawToken {
	return x.scan(documentID, text, true)
}

// ExtractAll is Extract without de-duplication: every occurrence is kept.
func (x *Extractor) ExtractAll(documentID, text string) []internal.RawToken {
	return x.scan(documentID, text, false)
}

func (x *Extractor) scan(documentID, text string, dedupe bool) []internal.RawToken {
	scan := text
	if x.ProseOnly {
		scan = blankCode(text)
	}

	seen := map[string]struct{}{}
	out := []internal.RawToken{}
	collect := func(kind internal.TokenKind, re *regexp.Regexp) {
		for _, loc := range re.FindAllStringIndex(scan, -1) {
			raw := scan[loc[0]:loc[1]]
			if dedupe {
				key := string(kind) + "|" + raw
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, internal.RawToken{Kind: kind, Text: raw, DocumentID: documentID, Offset: loc[0]})
		}
	}
	collect(internal.TokenControl, controlPattern)
	collect(internal.TokenIndicator, indicatorPattern)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Texts returns the raw text of the tokens of one kind.
func Texts(tokens []internal.RawToken, kind internal.TokenKind) []string {
	out := []string{}
	for _, t := range tokens {
		if t.Kind == kind {
			out = append(out, t.Text)
		}
	}
	return out
}

// NormalizeAll maps control tokens to a sorted, de-duplicated list of
// canonical ids. Indicator tokens and tokens that fail to normalize are
// dropped.
func NormalizeAll(tokens []internal.RawToken) []string {
	set := map[string]struct{}{}
	for _, t := range tokens {
		if t.Kind != internal.TokenControl {
			continue
		}
		id, err := Normalize(t.Text)
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// blankCode overwrites fenced blocks and inline code spans with spaces so the
// byte offsets of the remaining prose are unchanged.
func blankCode(text string) string {
	b := []byte(text)
	inFence := false
	fence := ""
	start := 0
	for start <= len(b) {
		end := start
		for end < len(b) && b[end] != '\n' {
			end++
		}
		line := b[start:end]
		trimmed := strings.TrimSpace(string(line))
		switch {
		case inFence:
			if strings.HasPrefix(trimmed, fence) {
				inFence = false
			}
			blank(line)
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			inFence = true
			fence = trimmed[:3]
			blank(line)
		default:
			blankInlineCode(line)
		}
		if end == len(b) {
			break
		}
		start = end + 1
	}
	return string(b)
}

func blankInlineCode(line []byte) {
	i := 0
	for i < len(line) {
		if line[i] != '`' {
			i++
			continue
		}
		open := backtickRun(line, i)
		closeAt := -1
		for j := i + open; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			run := backtickRun(line, j)
			if run == open {
				closeAt = j
				break
			}
			j += run
		}
		if closeAt < 0 {
			i += open
			continue
		}
		blank(line[i : closeAt+open])
		i = closeAt + open
	}
}

func backtickRun(line []byte, i int) int {
	n := 0
	for i+n < len(line) && line[i+n] == '`' {
		n++
	}
	return n
}

func blank(b []byte) {
	for i := range b {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}
