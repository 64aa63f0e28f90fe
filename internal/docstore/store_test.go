package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedramphub/internal"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func corpus(t *testing.T) (Manifest, string) {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	rfcs := filepath.Join(root, "rfc")

	writeFile(t, filepath.Join(docs, "FRMR.KSI.key-security-indicators-with-controls.md"),
		"# Key Security Indicators\n\n## KSI-IAM-01\nRelated: ac-2, ia-2.1\n")
	writeFile(t, filepath.Join(docs, "notes.md"), "---\ntitle: Field Notes\n---\nNothing about AU-2 here.\n")
	writeFile(t, filepath.Join(docs, "nested", "deep.md"), "deep file")
	writeFile(t, filepath.Join(docs, "image.png"), "binary")
	writeFile(t, filepath.Join(rfcs, "0001.md"), "Comment process mentions SC-7 and sc-7.")
	writeFile(t, filepath.Join(rfcs, "0002.html"),
		"<html><head><title>3PAO</title></head><body><p>Assessors check <code>AC-3</code> and CM-6.</p></body></html>")
	writeFile(t, filepath.Join(rfcs, "thread.eml"),
		"From: a@example.com\r\nSubject: RFC 0006 feedback\r\nContent-Type: text/plain\r\n\r\nPlease map KSI-CNA-01 to SC-7.\r\n")

	m := DefaultManifest(docs, rfcs, filepath.Join(root, "missing-roadmap"))
	m.Categories[1].Include = []string{"*.md", "*.html", "*.eml"}
	return m, root
}

func TestLoad(t *testing.T) {
	m, _ := corpus(t)
	store, err := Load(context.Background(), m, LoadOptions{Concurrency: 2})
	require.NoError(t, err)

	ids := []string{}
	for _, d := range store.Documents() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{
		"RFC/0001.md",
		"RFC/0002.html",
		"RFC/thread.eml",
		"Standards/FRMR.KSI.key-security-indicators-with-controls.md",
		"Standards/notes.md",
	}, ids)

	ksi, ok := store.Get("Standards/FRMR.KSI.key-security-indicators-with-controls.md")
	require.True(t, ok)
	assert.Equal(t, "Key Security Indicators (with Controls)", ksi.Title)
	assert.Equal(t, internal.CategoryStandards, ksi.Category)

	notes, _ := store.Get("Standards/notes.md")
	assert.Equal(t, "Field Notes", notes.Title)

	rfc1, _ := store.Get("RFC/0001.md")
	assert.Equal(t, "RFC 0001: New Comment Process", rfc1.Title)

	html, _ := store.Get("RFC/0002.html")
	assert.Equal(t, "3PAO", html.Title)
	assert.Contains(t, html.Content, "AC-3")

	eml, _ := store.Get("RFC/thread.eml")
	assert.Equal(t, "RFC 0006 feedback", eml.Title)
	assert.Contains(t, eml.Content, "KSI-CNA-01")

	assert.Len(t, store.ByCategory(internal.CategoryRFC), 3)
	assert.Empty(t, store.ByCategory(internal.CategoryRoadmap))
}

func TestLoadProseOnlyDropsHTMLCode(t *testing.T) {
	m, _ := corpus(t)
	store, err := Load(context.Background(), m, LoadOptions{ProseOnly: true})
	require.NoError(t, err)

	html, ok := store.Get("RFC/0002.html")
	require.True(t, ok)
	assert.NotContains(t, html.Content, "AC-3")
	assert.Contains(t, html.Content, "CM-6")
}

func TestLoadRecursiveInclude(t *testing.T) {
	m, _ := corpus(t)
	m.Categories[0].Include = []string{"**/*.md"}
	store, err := Load(context.Background(), m, LoadOptions{})
	require.NoError(t, err)

	_, ok := store.Get("Standards/nested/deep.md")
	assert.True(t, ok)
}

func TestLoadCancelled(t *testing.T) {
	m, _ := corpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, m, LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadRejectsBadPattern(t *testing.T) {
	m, _ := corpus(t)
	m.Categories[0].Include = []string{"[unterminated"}
	_, err := Load(context.Background(), m, LoadOptions{})
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	store := NewStore([]internal.Document{
		{ID: "RFC/0001.md", Title: "RFC 0001: New Comment Process"},
		{ID: "RFC/0001.md", Title: "duplicate"},
		{ID: "Roadmap/README.md", Title: "Roadmap Overview"},
	})
	assert.Equal(t, 2, store.Len())

	d, ok := store.Find("readme.md")
	require.True(t, ok)
	assert.Equal(t, "Roadmap/README.md", d.ID)

	d, ok = store.Find("rfc 0001: new comment process")
	require.True(t, ok)
	assert.Equal(t, "RFC/0001.md", d.ID)

	_, ok = store.Find("nope")
	assert.False(t, ok)
}
