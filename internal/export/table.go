package export

import (
	"strings"

	"fedramphub/internal"
	"fedramphub/internal/docstore"
)

// Table is a flat result set ready to be written in any format.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]any
}

// Records keys each row by header, for JSON output.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

func SearchTable(results []internal.SearchResult) Table {
	t := Table{
		Sheet:   "Search Results",
		Headers: []string{"Control ID", "Name", "Family", "Baselines", "In KSI", "FedRAMP Params", "Score"},
	}
	for _, r := range results {
		e := r.Entry
		if e == nil {
			e = &internal.CatalogEntry{ID: r.ID}
		}
		t.Rows = append(t.Rows, []any{r.ID, e.Name, e.Family, strings.Join(e.Baselines, ", "), e.InIndicator, e.HasParameter, r.Score})
	}
	return t
}

// CrosswalkTable labels the two flag columns after the compared sources,
// e.g. "In KSI" and "In Low Baseline".
func CrosswalkTable(rows []internal.CrosswalkRow, leftLabel, rightLabel string) Table {
	t := Table{
		Sheet:   "Crosswalk",
		Headers: []string{"Control ID", "In " + leftLabel, "In " + rightLabel, "Status"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.ControlID, r.InLeft, r.InRight, string(r.Status)})
	}
	return t
}

func FamilyTable(families []internal.FamilyBreakdown, leftLabel, rightLabel string) Table {
	t := Table{
		Sheet:   "Families",
		Headers: []string{"Family", "In Both", leftLabel + " Only", rightLabel + " Only", "Total"},
	}
	for _, f := range families {
		t.Rows = append(t.Rows, []any{f.Family, f.Both, f.LeftOnly, f.RightOnly, f.Total})
	}
	return t
}

func IndicatorTable(groups []internal.IndicatorCategory) Table {
	t := Table{
		Sheet:   "KSI",
		Headers: []string{"KSI ID", "Category Code", "Category Name", "Total in Category"},
	}
	for _, g := range groups {
		for _, tag := range g.Tags {
			t.Rows = append(t.Rows, []any{tag, g.Code, g.Name, len(g.Tags)})
		}
	}
	return t
}

// DocumentControlsTable lists one row per control id mentioned in a document.
func DocumentControlsTable(summaries []docstore.Summary) Table {
	t := Table{
		Sheet:   "Document Controls",
		Headers: []string{"Document", "Title", "Control ID"},
	}
	for _, s := range summaries {
		for _, id := range s.Controls {
			t.Rows = append(t.Rows, []any{s.ID, s.Title, id})
		}
	}
	return t
}
