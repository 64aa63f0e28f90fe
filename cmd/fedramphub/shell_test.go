package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fedramphub/internal/config"
	"fedramphub/internal/hub"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	cfg := config.Config{
		DocsDir:        docs,
		RFCsDir:        filepath.Join(dir, "rfc"),
		RoadmapDir:     filepath.Join(dir, "roadmap"),
		BaselineXLSX:   filepath.Join(dir, "baseline.xlsx"),
		KSIDocument:    filepath.Join(docs, "ksi.md"),
		OutputDir:      filepath.Join(dir, "out"),
		SearchFields:   []string{"id", "name"},
		SearchFuzzy:    true,
		FuzzyThreshold: 70,
		SuggestLimit:   5,
		ResultLimit:    20,
		HistoryLimit:   5,
		LogLevel:       "error",
	}

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Low Baseline"))
	rows := [][]any{
		{"SORT ID", "Family", "Control Name", "NIST Control Description"},
		{"AC-01", "ACCESS CONTROL", "Access Control Policy", "Develop and document policy."},
		{"AC-02", "ACCESS CONTROL", "Account Management", "Manage system accounts."},
		{"AU-02", "AUDIT AND ACCOUNTABILITY", "Event Logging", "Identify events to log."},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue("Low Baseline", cell, v))
		}
	}
	require.NoError(t, f.SaveAs(cfg.BaselineXLSX))
	require.NoError(t, os.WriteFile(cfg.KSIDocument, []byte(
		"# KSI\n\n## KSI-IAM-01\nImplements ac-1 and ac-2.\n\n## KSI-MLA-01\nSee AU-2 and SI-4.\n"), 0o644))
	return cfg
}

func runScript(t *testing.T, script string) string {
	t.Helper()
	svc, err := hub.New(testConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	out := &bytes.Buffer{}
	require.NoError(t, runShell(context.Background(), svc, strings.NewReader(script), out))
	return out.String()
}

func TestShellSearchAndSavedQueries(t *testing.T) {
	out := runScript(t, strings.Join([]string{
		"search AC-0",
		"save AC-0",
		"save AC-0",
		"set fuzzy off",
		"run AC-0",
		"saved",
		"unsave AC-0",
		"unsave AC-0",
		"history",
	}, "\n"))

	assert.Contains(t, out, "2 controls")
	assert.Contains(t, out, "AC-01")
	assert.Contains(t, out, "Account Management")
	assert.Contains(t, out, `saved "AC-0"`)
	assert.Contains(t, out, `"AC-0" is already saved`)
	assert.Contains(t, out, "fuzzy=false")
	assert.Contains(t, out, `removed "AC-0"`)
	assert.Contains(t, out, `error: no saved search "AC-0"`)
	assert.NotContains(t, out, "no history")
}

func TestShellShowAndCrosswalk(t *testing.T) {
	out := runScript(t, "show ac-1\ncrosswalk\nsuggest au")

	assert.Contains(t, out, "AC-01  Access Control Policy")
	assert.Contains(t, out, "Indicators:  KSI-IAM-01")
	assert.Contains(t, out, "in both: 3  KSI only: 1  Low Baseline only: 0")
	assert.Contains(t, out, "AU-02")
}

func TestShellStopsAtQuitAndReportsErrors(t *testing.T) {
	out := runScript(t, "bogus\nshow XX\nset colour on\nquit\nhelp")

	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, `unknown option "colour"`)
	assert.Contains(t, out, "error:")
	assert.NotContains(t, out, "commands:")
}

func TestShellFailsWithoutWorkbook(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(cfg.BaselineXLSX))
	svc, err := hub.New(cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	err = runShell(context.Background(), svc, strings.NewReader("help"), &bytes.Buffer{})
	require.Error(t, err)
}

func execute(t *testing.T, cfg config.Config, args ...string) string {
	t.Helper()
	cmd := rootCmd(cfg)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSearchCommandExports(t *testing.T) {
	cfg := testConfig(t)
	out := execute(t, cfg, "search", "AC-0", "--out", "results.csv", "--summary")

	assert.Contains(t, out, "2 controls")
	assert.Contains(t, out, "did you mean")
	assert.Contains(t, out, "exported to")

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "results.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "AC-02")
}

func TestControlsAndKSICommands(t *testing.T) {
	cfg := testConfig(t)

	out := execute(t, cfg, "controls", "show", "au-2")
	assert.Contains(t, out, "AU-02  Event Logging")
	assert.Contains(t, out, "Indicators:  KSI-MLA-01")

	out = execute(t, cfg, "controls", "list", "--family", "AU")
	assert.Contains(t, out, "1 of")

	out = execute(t, cfg, "ksi", "--related")
	assert.Contains(t, out, "2 indicators in 2 categories")
	assert.Contains(t, out, "AU-02, SI-04")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, config.Config{}, "version")
	assert.Equal(t, "fedramphub version "+Version+"\n", out)
}
