package docstore

import (
	"sort"
	"strings"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
)

type Summary struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	Category   internal.DocumentCategory `json:"category"`
	Words      int                       `json:"words"`
	Bytes      int                       `json:"bytes"`
	Controls   []string                  `json:"controls"`
	Indicators []string                  `json:"indicators"`
}

// Summarize counts a document's words and lists the canonical control ids and
// indicator tags it mentions.
func Summarize(d internal.Document, x *controlid.Extractor) Summary {
	tokens := x.Extract(d.ID, d.Content)
	indicators := controlid.Texts(tokens, internal.TokenIndicator)
	sort.Strings(indicators)
	return Summary{
		ID:         d.ID,
		Title:      d.Title,
		Category:   d.Category,
		Words:      len(strings.Fields(d.Content)),
		Bytes:      len(d.Content),
		Controls:   controlid.NormalizeAll(tokens),
		Indicators: indicators,
	}
}
