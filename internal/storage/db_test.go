package storage

import (
	"testing"

	"github.com/google/uuid"
)

func openDB(t *testing.T, limit int) *DB {
	t.Helper()
	db, err := Open(limit)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHistoryKeepsLastDistinct(t *testing.T) {
	db := openDB(t, 3)
	for _, q := range []string{"AC", "AU-2", "access", "AC", "  ", "SC-7"} {
		if err := db.AddHistory(q, 1); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := db.History()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{}
	for _, h := range hist {
		got = append(got, h.Query)
	}
	want := []string{"SC-7", "AC", "access"}
	if len(got) != len(want) {
		t.Fatalf("history=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history=%v want %v", got, want)
		}
	}

	if err := db.ClearHistory(); err != nil {
		t.Fatal(err)
	}
	hist, _ = db.History()
	if len(hist) != 0 {
		t.Fatalf("history not cleared: %v", hist)
	}
}

func TestSavedSearchesAreUnique(t *testing.T) {
	db := openDB(t, 0)
	opts := map[string]any{"fuzzy": true, "fields": []string{"id", "name"}}

	added, err := db.SaveSearch("access control", opts)
	if err != nil || !added {
		t.Fatalf("added=%v err=%v", added, err)
	}
	added, err = db.SaveSearch(" access control ", opts)
	if err != nil || added {
		t.Fatalf("duplicate added=%v err=%v", added, err)
	}
	if _, err := db.SaveSearch("", opts); err == nil {
		t.Fatal("expected error for empty query")
	}

	saved, err := db.SavedSearches()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].Query != "access control" {
		t.Fatalf("saved=%+v", saved)
	}
	if saved[0].Options != `{"fields":["id","name"],"fuzzy":true}` {
		t.Fatalf("options=%s", saved[0].Options)
	}

	s, err := db.GetSaved("access control")
	if err != nil || s == nil {
		t.Fatalf("get saved: %v %v", s, err)
	}
	missing, err := db.GetSaved("nope")
	if err != nil || missing != nil {
		t.Fatalf("missing=%v err=%v", missing, err)
	}

	removed, err := db.DeleteSaved("access control")
	if err != nil || !removed {
		t.Fatalf("removed=%v err=%v", removed, err)
	}
	removed, _ = db.DeleteSaved("access control")
	if removed {
		t.Fatal("second delete should report false")
	}
}

func TestRunsAndMetadata(t *testing.T) {
	db := openDB(t, 0)
	id, err := db.InsertRun("catalog", map[string]float64{"totalMs": 12}, map[string]int{"entries": 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run id %q: %v", id, err)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Kind != "catalog" || runs[0].Counts["entries"] != 3 || runs[0].Timings["totalMs"] != 12 {
		t.Fatalf("runs=%+v", runs)
	}

	if v, _ := db.GetMetadata("fingerprint"); v != nil {
		t.Fatalf("unexpected metadata %q", *v)
	}
	if err := db.SetMetadata("fingerprint", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("fingerprint", "2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("fingerprint")
	if err != nil || v == nil || *v != "2" {
		t.Fatalf("metadata=%v err=%v", v, err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a := openDB(t, 0)
	b := openDB(t, 0)
	if err := a.AddHistory("AC", 1); err != nil {
		t.Fatal(err)
	}
	hist, err := b.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 0 {
		t.Fatalf("sessions share state: %v", hist)
	}
}
