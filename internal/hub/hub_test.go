package hub

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fedramphub/internal"
	"fedramphub/internal/config"
	"fedramphub/internal/search"
)

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Low Baseline"))
	rows := [][]any{
		{"FedRAMP Low Baseline"},
		{"SORT ID", "Family", "Control Name", "NIST Control Description", "FedRAMP\nParameter"},
		{"AC-01", "ACCESS CONTROL", "Access Control Policy", "Develop and document policy.", "X"},
		{"AC-02", "ACCESS CONTROL", "Account Management", "Manage system accounts.", ""},
		{"AU-02", "AUDIT AND ACCOUNTABILITY", "Event Logging", "Identify events to log.", ""},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue("Low Baseline", cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newService(t *testing.T) (*Service, config.Config) {
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
		SearchFields:   []string{"id", "name"},
		SearchFuzzy:    true,
		FuzzyThreshold: 70,
		SuggestLimit:   5,
		HistoryLimit:   5,
	}
	writeWorkbook(t, cfg.BaselineXLSX)
	require.NoError(t, os.WriteFile(cfg.KSIDocument, []byte(
		"# KSI\n\n## KSI-IAM-01\nImplements ac-1 and ac-2.\n\n## KSI-MLA-01\nSee AU-2 and SI-4.\n"), 0o644))

	svc, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, cfg
}

func TestSnapshotCachesByContent(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first.Catalog, second.Catalog)

	entry, ok := first.Catalog.Get("SI-04")
	require.True(t, ok)
	assert.True(t, entry.InIndicator)
	assert.Empty(t, entry.Baselines)

	ac, _ := first.Catalog.Get("AC-01")
	assert.True(t, ac.HasParameter)
	assert.Equal(t, []string{"Low Baseline"}, ac.Baselines)

	require.NoError(t, os.WriteFile(cfg.KSIDocument, []byte("KSI-IAM-01 covers ac-1 only."), 0o644))
	third, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first.Catalog, third.Catalog)
	_, ok = third.Catalog.Get("SI-04")
	assert.False(t, ok)

	runs, err := svc.Session().Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	fp, err := svc.Session().GetMetadata(metaFingerprint)
	require.NoError(t, err)
	require.NotNil(t, fp)

	reloaded, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.NotSame(t, third.Catalog, reloaded.Catalog)
}

func TestSnapshotLogsSessionFailures(t *testing.T) {
	svc, _ := newService(t)
	logs := &bytes.Buffer{}
	svc.logger = slog.New(slog.NewTextHandler(logs, nil))
	require.NoError(t, svc.Session().Close())

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Catalog.Len())
	assert.Contains(t, logs.String(), "could not record catalog fingerprint")
	assert.Contains(t, logs.String(), "could not record catalog run")
}

func TestSearchRecordsHistory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	opts, err := svc.SearchOptions()
	require.NoError(t, err)
	res, err := svc.Search(ctx, "AC", opts, search.Filter{Parameter: search.Yes})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "AC-01", res[0].ID)

	hist, err := svc.Session().History()
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "AC", hist[0].Query)
	assert.Equal(t, 1, hist[0].ResultCount)

	sugg, err := svc.Suggest(ctx, "au", 0)
	require.NoError(t, err)
	assert.Equal(t, "AU-02", sugg[0])
}

func TestCrosswalkAndIndicators(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Crosswalk(ctx, "Low")
	require.NoError(t, err)
	assert.Equal(t, []string{"AC-01", "AC-02", "AU-02"}, res.Both)
	assert.Equal(t, []string{"SI-04"}, res.LeftOnly)
	assert.Empty(t, res.RightOnly)

	groups, related, err := svc.Indicators(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "IAM", groups[0].Code)
	assert.Equal(t, "MLA", groups[1].Code)
	assert.Equal(t, []string{"AC-01", "AC-02"}, related["KSI-IAM-01"])
	assert.Equal(t, []string{"AU-02", "SI-04"}, related["KSI-MLA-01"])
}

func TestMissingSources(t *testing.T) {
	svc, cfg := newService(t)
	require.NoError(t, os.Remove(cfg.KSIDocument))
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Catalog.IndicatorIDs())

	require.NoError(t, os.Remove(cfg.BaselineXLSX))
	_, err = svc.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestDocuments(t *testing.T) {
	svc, _ := newService(t)
	store, err := svc.Documents(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
	d := store.Documents()[0]
	assert.Equal(t, "Standards/ksi.md", d.ID)
	assert.Equal(t, "KSI", d.Title)
	assert.Equal(t, internal.CategoryStandards, d.Category)
}
