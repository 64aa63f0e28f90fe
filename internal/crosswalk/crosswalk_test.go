package crosswalk

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedramphub/internal"
	"fedramphub/internal/catalog"
	"fedramphub/internal/controlid"
)

func TestAnalyze(t *testing.T) {
	res := Analyze(
		[]string{"AC-01", "AC-02", "AU-02", "AC-02"},
		[]string{"AC-02", "SC-07", "AU-02", "AU-03"},
	)
	assert.Equal(t, []string{"AC-02", "AU-02"}, res.Both)
	assert.Equal(t, []string{"AC-01"}, res.LeftOnly)
	assert.Equal(t, []string{"AU-03", "SC-07"}, res.RightOnly)
	assert.Equal(t, 5, res.Union())

	assert.Equal(t, []internal.FamilyBreakdown{
		{Family: "AC", Both: 1, LeftOnly: 1, Total: 2},
		{Family: "AU", Both: 1, RightOnly: 1, Total: 2},
		{Family: "SC", RightOnly: 1, Total: 1},
	}, res.Families)
}

func TestAnalyzeEmpty(t *testing.T) {
	res := Analyze(nil, nil)
	assert.Empty(t, res.Both)
	assert.Empty(t, res.LeftOnly)
	assert.Empty(t, res.RightOnly)
	assert.Empty(t, res.Families)
	assert.Empty(t, res.Rows())

	res = Analyze([]string{"AC-01"}, nil)
	assert.Equal(t, []string{"AC-01"}, res.LeftOnly)
}

func TestAnalyzeConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	families := []string{"AC", "AU", "SC", "SI"}
	pick := func() []string {
		out := []string{}
		for i := rng.Intn(30); i > 0; i-- {
			out = append(out, fmt.Sprintf("%s-%02d", families[rng.Intn(len(families))], rng.Intn(12)))
		}
		return out
	}

	for round := 0; round < 200; round++ {
		left, right := pick(), pick()
		res := Analyze(left, right)

		union := map[string]struct{}{}
		for _, id := range append(append([]string{}, left...), right...) {
			union[id] = struct{}{}
		}
		require.Equal(t, len(union), res.Union())

		seen := map[string]int{}
		for _, set := range [][]string{res.Both, res.LeftOnly, res.RightOnly} {
			for _, id := range set {
				seen[id]++
			}
		}
		for id, n := range seen {
			require.Equal(t, 1, n, "%s appears in more than one set", id)
		}

		total := 0
		for _, f := range res.Families {
			require.Equal(t, f.Both+f.LeftOnly+f.RightOnly, f.Total)
			total += f.Total
		}
		require.Equal(t, len(union), total)
	}
}

func TestRows(t *testing.T) {
	rows := Analyze([]string{"AU-02", "AC-01"}, []string{"AC-01", "AC-05"}).Rows()
	assert.Equal(t, []internal.CrosswalkRow{
		{ControlID: "AC-01", InLeft: true, InRight: true, Status: internal.StatusBoth},
		{ControlID: "AC-05", InRight: true, Status: internal.StatusRightOnly},
		{ControlID: "AU-02", InLeft: true, Status: internal.StatusLeftOnly},
	}, rows)
}

func TestBaselineIDs(t *testing.T) {
	rows := []internal.BaselineRow{
		{Sheet: "Low Baseline", Fields: map[string]string{internal.ColumnSortID: "AC-1"}},
		{Sheet: "Low Baseline", Fields: map[string]string{internal.ColumnSortID: "AC-01"}},
		{Sheet: "Low Baseline", Fields: map[string]string{internal.ColumnSortID: "garbage"}},
		{Sheet: "High Baseline", Fields: map[string]string{internal.ColumnSortID: "SC-7"}},
	}
	assert.Equal(t, []string{"AC-01"}, BaselineIDs(rows, "low"))
	assert.Equal(t, []string{"SC-07"}, BaselineIDs(rows, "High Baseline"))
	assert.Empty(t, BaselineIDs(rows, ""))
}

func TestEndToEnd(t *testing.T) {
	rows := []internal.BaselineRow{{
		Sheet:     "Low Baseline",
		RowNumber: 3,
		Fields:    map[string]string{internal.ColumnSortID: "AC-01", internal.ColumnControlName: "Access Control Policy"},
	}}
	tokens := controlid.NewExtractor(false).Extract("ksi", "implements ac-1 and ksi-iam-01")

	cat, err := catalog.Build(rows, tokens)
	require.NoError(t, err)

	res := Analyze(cat.IndicatorIDs(), BaselineIDs(rows, "Low"))
	assert.Equal(t, []string{"AC-01"}, res.Both)
	assert.Empty(t, res.LeftOnly)
	assert.Empty(t, res.RightOnly)
}

func TestGroupIndicators(t *testing.T) {
	groups := GroupIndicators([]string{"KSI-SVC-02", "KSI-IAM-01", "KSI-IAM-01", "KSI-CED-01", "KSI-ZZZ-01", "KSI"})
	require.Len(t, groups, 4)
	assert.Equal(t, internal.IndicatorCategory{Code: "CED", Name: "Cybersecurity Education", Tags: []string{"KSI-CED-01"}}, groups[0])
	assert.Equal(t, []string{"KSI-IAM-01"}, groups[1].Tags)
	assert.Equal(t, "SVC", groups[2].Code)
	assert.Equal(t, internal.IndicatorCategory{Code: "ZZZ", Name: "ZZZ", Tags: []string{"KSI-ZZZ-01"}}, groups[3])
}

func TestIndicatorControls(t *testing.T) {
	text := "Intro mentions AC-1.\n" +
		"## KSI-IAM-01\nEnforce MFA. Related: ia-2, ia-2.1, AC-2\n" +
		"## KSI-IAM-02\nLeast privilege. Related: ac-2, AC-6\n"
	tokens := controlid.NewExtractor(false).ExtractAll("ksi", text)

	got := IndicatorControls(tokens)
	assert.Equal(t, map[string][]string{
		"KSI-IAM-01": {"AC-02", "IA-02", "IA-02(1)"},
		"KSI-IAM-02": {"AC-02", "AC-06"},
	}, got)
}
