package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
	"fedramphub/internal/docstore"
	"fedramphub/internal/export"
	"fedramphub/internal/search"
	"fedramphub/internal/util"
)

type searchFlags struct {
	fields        []string
	fuzzy         bool
	caseSensitive bool
	families      []string
	baselines     []string
	ksi           string
	params        string
	limit         int
	out           string
	summary       bool
}

func (f searchFlags) filter() (search.Filter, error) {
	ksi, err := search.ParseTristate(f.ksi)
	if err != nil {
		return search.Filter{}, fmt.Errorf("--ksi: %w", err)
	}
	params, err := search.ParseTristate(f.params)
	if err != nil {
		return search.Filter{}, fmt.Errorf("--params: %w", err)
	}
	return search.Filter{Families: f.families, Baselines: f.baselines, Indicator: ksi, Parameter: params}, nil
}

func (f searchFlags) options() (search.Options, error) {
	fields, err := search.ParseFields(f.fields)
	if err != nil {
		return search.Options{}, err
	}
	return search.Options{Fields: fields, Fuzzy: f.fuzzy, CaseSensitive: f.caseSensitive}, nil
}

func addFilterFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringSliceVar(&f.families, "family", nil, "Family codes to keep, e.g. AC,AU")
	cmd.Flags().StringSliceVar(&f.baselines, "baseline", nil, "Baselines to keep, e.g. Low,Moderate")
	cmd.Flags().StringVar(&f.ksi, "ksi", "all", "KSI status: all|in|out")
	cmd.Flags().StringVar(&f.params, "params", "all", "FedRAMP parameters: all|has|none")
}

func searchCmd(a *app) *cobra.Command {
	f := searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search controls by id, name or description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			filter, err := f.filter()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := a.svc.Search(cmd.Context(), query, opts, filter)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(query) < 6 {
				if sugg, err := a.svc.Suggest(cmd.Context(), query, 5); err == nil && len(sugg) > 0 {
					fmt.Fprintf(w, "did you mean: %s\n", strings.Join(sugg, ", "))
				}
			}
			fmt.Fprintf(w, "%d controls\n", len(results))
			renderResults(w, search.Limit(results, f.limit))
			if f.summary {
				renderSummary(w, search.Summarize(results))
			}
			return a.save(cmd, f.out, export.SearchTable(results))
		},
	}
	cmd.Flags().StringSliceVar(&f.fields, "fields", a.cfg.SearchFields, "Fields to search: id,name,description")
	cmd.Flags().BoolVar(&f.fuzzy, "fuzzy", a.cfg.SearchFuzzy, "Approximate matching on name and description")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", a.cfg.SearchCaseSensitive, "Case-sensitive name and description matching")
	cmd.Flags().IntVar(&f.limit, "limit", a.cfg.ResultLimit, "Rows to display (0 = all); exports are not limited")
	cmd.Flags().StringVar(&f.out, "out", "", "Export results to .csv, .json or .xlsx")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Print counts by family and baseline")
	addFilterFlags(cmd, &f)
	return cmd
}

func suggestCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest <partial id>",
		Short: "Complete a partial control id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.svc.Suggest(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no suggestions")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", a.cfg.SuggestLimit, "Maximum suggestions")
	return cmd
}

func controlsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "controls", Short: "Browse the control catalog"}

	show := &cobra.Command{
		Use:   "show <control id>",
		Short: "Show one control",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := controlid.Normalize(args[0])
			if err != nil {
				return err
			}
			cat, err := a.svc.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			entry, ok := cat.Get(id)
			if !ok {
				return fmt.Errorf("control %s not found", id)
			}
			_, related, err := a.svc.Indicators(cmd.Context())
			if err != nil {
				return err
			}
			renderEntry(cmd.OutOrStdout(), entry, indicatorsFor(related, id))
			return nil
		},
	}

	f := searchFlags{}
	var warnings bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List controls, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := f.filter()
			if err != nil {
				return err
			}
			cat, err := a.svc.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			results := []internal.SearchResult{}
			for _, e := range cat.Entries() {
				if filter.Match(e) {
					results = append(results, internal.SearchResult{ID: e.ID, Entry: e})
				}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d of %d controls\n", len(results), cat.Len())
			renderResults(w, search.Limit(results, f.limit))
			if f.summary {
				renderSummary(w, search.Summarize(results))
			}
			if warnings {
				for _, warn := range cat.Warnings() {
					if warn.Row == 0 {
						fmt.Fprintf(w, "skipped sheet %s: %v\n", warn.Sheet, warn.Err)
						continue
					}
					fmt.Fprintf(w, "skipped %s row %d (%q): %v\n", warn.Sheet, warn.Row, warn.Raw, warn.Err)
				}
			}
			return a.save(cmd, f.out, export.SearchTable(results))
		},
	}
	list.Flags().IntVar(&f.limit, "limit", 0, "Rows to display (0 = all)")
	list.Flags().StringVar(&f.out, "out", "", "Export to .csv, .json or .xlsx")
	list.Flags().BoolVar(&f.summary, "summary", false, "Print counts by family and baseline")
	list.Flags().BoolVar(&warnings, "warnings", false, "Print baseline rows skipped during the build")
	addFilterFlags(list, &f)

	cmd.AddCommand(show, list)
	return cmd
}

func indicatorsFor(related map[string][]string, id string) []string {
	out := []string{}
	for tag, ids := range related {
		for _, x := range ids {
			if x == id {
				out = append(out, tag)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func crosswalkCmd(a *app) *cobra.Command {
	var baselineName, out string
	cmd := &cobra.Command{
		Use:   "crosswalk",
		Short: "Compare KSI-referenced controls with a baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Crosswalk(cmd.Context(), baselineName)
			if err != nil {
				return err
			}
			label := baselineName + " Baseline"
			renderCrosswalk(cmd.OutOrStdout(), res, "KSI", label)
			return a.save(cmd, out,
				export.CrosswalkTable(res.Rows(), "KSI", label),
				export.FamilyTable(res.Families, "KSI", label),
			)
		},
	}
	cmd.Flags().StringVar(&baselineName, "baseline", "Low", "Baseline to compare: Low|Moderate|High")
	cmd.Flags().StringVar(&out, "out", "", "Export rows to .csv, .json or .xlsx")
	return cmd
}

func ksiCmd(a *app) *cobra.Command {
	var out string
	var related bool
	cmd := &cobra.Command{
		Use:   "ksi",
		Short: "List Key Security Indicators by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, controls, err := a.svc.Indicators(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			total := 0
			for _, g := range groups {
				total += len(g.Tags)
			}
			fmt.Fprintf(w, "%d indicators in %d categories\n", total, len(groups))

			rows := [][]string{}
			for _, g := range groups {
				for _, tag := range g.Tags {
					row := []string{g.Code, g.Name, tag}
					if related {
						row = append(row, strings.Join(controls[tag], ", "))
					}
					rows = append(rows, row)
				}
			}
			headers := []string{"Code", "Category", "KSI"}
			if related {
				headers = append(headers, "Related Controls")
			}
			if len(rows) > 0 {
				renderTable(w, headers, rows)
			}
			return a.save(cmd, out, export.IndicatorTable(groups))
		},
	}
	cmd.Flags().BoolVar(&related, "related", false, "Show the controls each indicator references")
	cmd.Flags().StringVar(&out, "out", "", "Export to .csv, .json or .xlsx")
	return cmd
}

func docsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "docs", Short: "Browse and search the document corpus"}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List loaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, d := range store.Documents() {
				if category != "" && string(d.Category) != category {
					continue
				}
				rows = append(rows, []string{d.ID, d.Title, string(d.Category)})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no documents")
				return nil
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "Title", "Category"}, rows)
			return nil
		},
	}
	list.Flags().StringVar(&category, "category", "", "standards|rfc|roadmap")

	var highlight string
	show := &cobra.Command{
		Use:   "show <id|file|title>",
		Short: "Print a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			d, ok := store.Find(strings.Join(args, " "))
			if !ok {
				return fmt.Errorf("document %q not found", strings.Join(args, " "))
			}
			text := d.Content
			if highlight != "" {
				q := docstore.Query{Text: highlight}
				n, err := docstore.CountMatches(text, q)
				if err != nil {
					return err
				}
				if text, err = docstore.Highlight(text, q, ">>", "<<"); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d matches for %q\n\n", n, highlight)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s (%s)\n\n%s\n", d.Title, d.ID, text)
			return nil
		},
	}
	show.Flags().StringVar(&highlight, "highlight", "", "Mark occurrences of a term")

	q := docstore.Query{}
	var searchCategory, searchOut string
	find := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			q.Text = strings.Join(args, " ")
			q.Category = internal.DocumentCategory(searchCategory)
			hits, err := store.Search(q)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(w, "no results")
				return nil
			}
			table := export.Table{Sheet: "Document Matches", Headers: []string{"Document", "Offset", "Match", "Context"}}
			for _, h := range hits {
				fmt.Fprintf(w, "%s (%d matches)\n", h.Document.ID, h.Total)
				for i, m := range h.Matches {
					fmt.Fprintf(w, "  %d. ...%s...\n", i+1, util.NormalizeSpaces(m.Context))
					table.Rows = append(table.Rows, []any{h.Document.ID, m.Offset, m.Text, m.Context})
				}
			}
			return a.save(cmd, searchOut, table)
		},
	}
	find.Flags().BoolVar(&q.Regex, "regex", false, "Treat the query as a regular expression")
	find.Flags().BoolVar(&q.CaseSensitive, "case-sensitive", false, "Case-sensitive matching")
	find.Flags().StringVar(&searchCategory, "category", "", "standards|rfc|roadmap")
	find.Flags().IntVar(&q.MaxMatches, "matches", docstore.DefaultMaxMatches, "Matches shown per document")
	find.Flags().IntVar(&q.ContextChars, "context", docstore.DefaultContextChars, "Characters of context around each match")
	find.Flags().StringVar(&searchOut, "out", "", "Export matches to .csv, .json or .xlsx")

	var controlsOut string
	controls := &cobra.Command{
		Use:   "controls [id|file|title]",
		Short: "List the control ids each document mentions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			docs := store.Documents()
			if len(args) > 0 {
				d, ok := store.Find(strings.Join(args, " "))
				if !ok {
					return fmt.Errorf("document %q not found", strings.Join(args, " "))
				}
				docs = []internal.Document{d}
			}
			summaries := make([]docstore.Summary, 0, len(docs))
			rows := [][]string{}
			for _, d := range docs {
				s := docstore.Summarize(d, a.svc.Extractor())
				summaries = append(summaries, s)
				rows = append(rows, []string{s.ID, strconv.Itoa(s.Words), strconv.Itoa(len(s.Controls)), strings.Join(s.Controls, ", ")})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no documents")
				return nil
			}
			renderTable(cmd.OutOrStdout(), []string{"Document", "Words", "Controls", "IDs"}, rows)
			return a.save(cmd, controlsOut, export.DocumentControlsTable(summaries))
		},
	}
	controls.Flags().StringVar(&controlsOut, "out", "", "Export to .csv, .json or .xlsx")

	cmd.AddCommand(list, show, find, controls)
	return cmd
}

// save writes tables when path is set. A bare file name lands in
// OUTPUT_DIR.
func (a *app) save(cmd *cobra.Command, path string, tables ...export.Table) error {
	if path == "" {
		return nil
	}
	if filepath.Base(path) == path && a.cfg.OutputDir != "" {
		path = filepath.Join(a.cfg.OutputDir, path)
	}
	if err := export.Save(path, tables...); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", path)
	return nil
}
