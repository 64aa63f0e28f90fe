package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"fedramphub/internal"
	"fedramphub/internal/crosswalk"
	"fedramphub/internal/search"
	"fedramphub/internal/util"
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(headers)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.AppendBulk(rows)
	t.Render()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func renderResults(w io.Writer, results []internal.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		e := r.Entry
		rows = append(rows, []string{
			r.ID, util.Truncate(e.Name, 50), e.FamilyCode, strings.Join(e.Baselines, ", "),
			yesNo(e.InIndicator), yesNo(e.HasParameter), strconv.Itoa(r.Score),
		})
	}
	renderTable(w, []string{"Control ID", "Name", "Family", "Baselines", "In KSI", "Params", "Score"}, rows)
}

func renderSummary(w io.Writer, s search.Summary) {
	fmt.Fprintf(w, "%d controls, %d in KSI, %d with FedRAMP parameters\n", s.Total, s.InIndicator, s.WithParameter)
	rows := [][]string{}
	for _, fam := range search.SortedKeys(s.ByFamily) {
		rows = append(rows, []string{"family", fam, strconv.Itoa(s.ByFamily[fam])})
	}
	for _, b := range search.SortedKeys(s.ByBaseline) {
		rows = append(rows, []string{"baseline", b, strconv.Itoa(s.ByBaseline[b])})
	}
	if len(rows) > 0 {
		renderTable(w, []string{"Group", "Name", "Count"}, rows)
	}
}

func renderEntry(w io.Writer, e *internal.CatalogEntry, indicators []string) {
	name := e.Name
	if name == "" {
		name = "(not in any baseline)"
	}
	fmt.Fprintf(w, "%s  %s\n", e.ID, name)
	if e.Family != "" {
		fmt.Fprintf(w, "Family:      %s (%s)\n", e.Family, e.FamilyCode)
	} else {
		fmt.Fprintf(w, "Family:      %s\n", e.FamilyCode)
	}
	fmt.Fprintf(w, "Baselines:   %s\n", strings.Join(e.Baselines, ", "))
	fmt.Fprintf(w, "In KSI:      %s\n", yesNo(e.InIndicator))
	fmt.Fprintf(w, "Parameters:  %s\n", yesNo(e.HasParameter))
	if len(indicators) > 0 {
		fmt.Fprintf(w, "Indicators:  %s\n", strings.Join(indicators, ", "))
	}
	if e.Description != "" {
		fmt.Fprintf(w, "\n%s\n", e.Description)
	}
}

func renderCrosswalk(w io.Writer, res crosswalk.Result, leftLabel, rightLabel string) {
	fmt.Fprintf(w, "in both: %d  %s only: %d  %s only: %d\n", len(res.Both), leftLabel, len(res.LeftOnly), rightLabel, len(res.RightOnly))
	if len(res.Families) == 0 {
		fmt.Fprintln(w, "no controls to compare")
		return
	}
	rows := make([][]string, 0, len(res.Families))
	for _, f := range res.Families {
		rows = append(rows, []string{f.Family, strconv.Itoa(f.Both), strconv.Itoa(f.LeftOnly), strconv.Itoa(f.RightOnly), strconv.Itoa(f.Total)})
	}
	renderTable(w, []string{"Family", "In Both", leftLabel + " Only", rightLabel + " Only", "Total"}, rows)
}
