package crosswalk

import (
	"sort"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
)

// GroupIndicators buckets KSI tags by category. Categories follow the
// enumeration order; unknown codes sort after it alphabetically. Tags within
// a category are unique and sorted.
func GroupIndicators(tags []string) []internal.IndicatorCategory {
	byCode := map[string]map[string]struct{}{}
	for _, tag := range tags {
		code := controlid.IndicatorCategory(tag)
		if code == "" {
			continue
		}
		if byCode[code] == nil {
			byCode[code] = map[string]struct{}{}
		}
		byCode[code][tag] = struct{}{}
	}

	out := []internal.IndicatorCategory{}
	for _, c := range controlid.Categories {
		if set, ok := byCode[c.Code]; ok {
			out = append(out, internal.IndicatorCategory{Code: c.Code, Name: c.Name, Tags: sortedKeys(set)})
			delete(byCode, c.Code)
		}
	}
	rest := make([]string, 0, len(byCode))
	for code := range byCode {
		rest = append(rest, code)
	}
	sort.Strings(rest)
	for _, code := range rest {
		out = append(out, internal.IndicatorCategory{Code: code, Name: controlid.CategoryName(code), Tags: sortedKeys(byCode[code])})
	}
	return out
}

// IndicatorControls maps each indicator tag to the canonical control ids that
// follow it in the same document, up to the next tag. tokens must keep every
// occurrence (see Extractor.ExtractAll).
func IndicatorControls(tokens []internal.RawToken) map[string][]string {
	ordered := append([]internal.RawToken(nil), tokens...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DocumentID != ordered[j].DocumentID {
			return ordered[i].DocumentID < ordered[j].DocumentID
		}
		return ordered[i].Offset < ordered[j].Offset
	})

	sets := map[string]map[string]struct{}{}
	current, doc := "", ""
	for _, tok := range ordered {
		if tok.DocumentID != doc {
			current, doc = "", tok.DocumentID
		}
		switch tok.Kind {
		case internal.TokenIndicator:
			current = tok.Text
			if sets[current] == nil {
				sets[current] = map[string]struct{}{}
			}
		case internal.TokenControl:
			if current == "" {
				continue
			}
			if id, err := controlid.Normalize(tok.Text); err == nil {
				sets[current][id] = struct{}{}
			}
		}
	}

	out := make(map[string][]string, len(sets))
	for tag, set := range sets {
		out[tag] = sortedKeys(set)
	}
	return out
}
