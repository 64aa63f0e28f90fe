package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
	"fedramphub/internal/util"
)

// MissingFieldError means a baseline sheet has no identifier column. Such a
// sheet is skipped; Build aborts only when every baseline sheet lacks it.
type MissingFieldError struct {
	Sheet string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("sheet %q: missing column %q", e.Sheet, e.Field)
}

// Warning records a row, or with Row zero a whole sheet, skipped during the
// build.
type Warning struct {
	Sheet string
	Row   int
	Raw   string
	Err   error
}

type Options struct {
	// DescriptionMaxChars truncates descriptions; zero keeps them whole.
	DescriptionMaxChars int
	Logger              *slog.Logger
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{opts: opts}
}

// Build merges baseline rows and indicator tokens into a catalog keyed by
// canonical control id. The result does not depend on the order of rows or
// tokens.
func Build(rows []internal.BaselineRow, indicators []internal.RawToken) (*Catalog, error) {
	return NewBuilder(Options{}).Build(rows, indicators)
}

func (b *Builder) Build(rows []internal.BaselineRow, indicators []internal.RawToken) (*Catalog, error) {
	cat := &Catalog{entries: map[string]*internal.CatalogEntry{}}

	hasColumn := map[string]bool{}
	for _, row := range rows {
		if !IsBaselineSheet(row.Sheet) {
			continue
		}
		_, ok := row.Fields[internal.ColumnSortID]
		hasColumn[row.Sheet] = hasColumn[row.Sheet] || ok
	}
	if err := b.checkSheets(cat, hasColumn); err != nil {
		return nil, err
	}

	ordered := make([]internal.BaselineRow, 0, len(rows))
	for _, row := range rows {
		if hasColumn[row.Sheet] {
			ordered = append(ordered, row)
		}
	}
	sortRows(ordered)

	for _, row := range ordered {
		raw := row.Fields[internal.ColumnSortID]
		id, err := controlid.Normalize(raw)
		if err != nil {
			cat.warnings = append(cat.warnings, Warning{Sheet: row.Sheet, Row: row.RowNumber, Raw: raw, Err: err})
			b.opts.Logger.Warn("skipping baseline row", "sheet", row.Sheet, "row", row.RowNumber, "error", err)
			continue
		}

		entry := cat.entry(id)
		entry.Baselines = appendUnique(entry.Baselines, row.Sheet)
		entry.HasParameter = entry.HasParameter || row.HasParameter
		if entry.Name == "" {
			entry.Name = strings.TrimSpace(row.Fields[internal.ColumnControlName])
		}
		if entry.Family == "" {
			entry.Family = strings.TrimSpace(row.Fields[internal.ColumnFamily])
		}
		if entry.Description == "" {
			entry.Description = util.Truncate(strings.TrimSpace(row.Fields[internal.ColumnDescription]), b.opts.DescriptionMaxChars)
		}
	}

	for _, tok := range indicators {
		if tok.Kind != internal.TokenControl {
			continue
		}
		id, err := controlid.Normalize(tok.Text)
		if err != nil {
			continue
		}
		cat.entry(id).InIndicator = true
	}

	cat.finish()
	b.opts.Logger.Debug("catalog built", "entries", len(cat.ids), "warnings", len(cat.warnings))
	return cat, nil
}

// checkSheets warns about baseline sheets without an identifier column. It
// fails only when no baseline sheet has one.
func (b *Builder) checkSheets(cat *Catalog, hasColumn map[string]bool) error {
	sheets := make([]string, 0, len(hasColumn))
	for sheet := range hasColumn {
		sheets = append(sheets, sheet)
	}
	sort.Strings(sheets)

	var first *MissingFieldError
	usable := 0
	for _, sheet := range sheets {
		if hasColumn[sheet] {
			usable++
			continue
		}
		err := &MissingFieldError{Sheet: sheet, Field: internal.ColumnSortID}
		if first == nil {
			first = err
		}
		cat.warnings = append(cat.warnings, Warning{Sheet: sheet, Err: err})
		b.opts.Logger.Warn("skipping baseline sheet", "sheet", sheet, "error", err)
	}
	if usable == 0 && first != nil {
		return first
	}
	return nil
}

// IsBaselineSheet reports whether a workbook sheet holds a baseline.
func IsBaselineSheet(name string) bool {
	return strings.Contains(strings.ToLower(name), "baseline")
}

// sortRows fixes a total order so first-writer-wins picks the same row
// whatever order the source produced.
func sortRows(rows []internal.BaselineRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Sheet != b.Sheet {
			return a.Sheet < b.Sheet
		}
		if a.RowNumber != b.RowNumber {
			return a.RowNumber < b.RowNumber
		}
		for _, col := range []string{internal.ColumnSortID, internal.ColumnControlName, internal.ColumnFamily, internal.ColumnDescription} {
			if a.Fields[col] != b.Fields[col] {
				return a.Fields[col] < b.Fields[col]
			}
		}
		return !a.HasParameter && b.HasParameter
	})
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
