package index

import (
	"context"
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM works`).Scan(&count); err != nil {
		t.Fatalf("works table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM work_keywords`).Scan(&count); err != nil {
		t.Fatalf("work_keywords table missing: %v", err)
	}
}

func TestPing(t *testing.T) {
	db := testDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	db.Close()
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping after Close should fail")
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := WorkRow{
		Name:      "hello",
		Title:     "Hello World",
		Checksum:  "abc123",
		Keywords:  []string{"go", "test"},
		Published: true,
	}
	if err := db.UpsertWork(row, "This is a hello world work."); err != nil {
		t.Fatalf("UpsertWork: %v", err)
	}
	cs, err := db.GetChecksum("hello")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestByKeyword(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWork(WorkRow{Name: "old", Checksum: "1", Keywords: []string{"web"}, Published: true, Date: day(2019, 1, 1), DateValid: true}, "b")
	_ = db.UpsertWork(WorkRow{Name: "new", Checksum: "2", Keywords: []string{"web", "go"}, Published: true, Date: day(2022, 1, 1), DateValid: true}, "b")
	_ = db.UpsertWork(WorkRow{Name: "undated", Checksum: "3", Keywords: []string{"web"}, Published: true}, "b")
	_ = db.UpsertWork(WorkRow{Name: "hidden", Checksum: "4", Keywords: []string{"web"}, Published: false}, "b")

	rows, err := db.ByKeyword("web")
	if err != nil {
		t.Fatalf("ByKeyword: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.Name)
	}
	want := []string{"new", "old", "undated"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
	if !rows[0].DateValid || !rows[0].Date.Equal(day(2022, 1, 1)) {
		t.Errorf("date = %v (valid %v)", rows[0].Date, rows[0].DateValid)
	}
	if len(rows[0].Keywords) != 2 {
		t.Errorf("keywords = %v", rows[0].Keywords)
	}
}

func TestKeywords(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWork(WorkRow{Name: "a", Checksum: "1", Keywords: []string{"web", "go"}, Published: true}, "")
	_ = db.UpsertWork(WorkRow{Name: "b", Checksum: "2", Keywords: []string{"web"}, Published: true}, "")
	_ = db.UpsertWork(WorkRow{Name: "c", Checksum: "3", Keywords: []string{"secret"}, Published: false}, "")

	kws, err := db.Keywords()
	if err != nil {
		t.Fatalf("Keywords: %v", err)
	}
	if len(kws) != 2 {
		t.Fatalf("keywords = %+v, want web and go", kws)
	}
	if kws[0] != (KeywordCount{Keyword: "web", Count: 2}) || kws[1] != (KeywordCount{Keyword: "go", Count: 1}) {
		t.Errorf("keywords = %+v", kws)
	}
}

func TestDeleteWork(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWork(WorkRow{Name: "del", Checksum: "x", Keywords: []string{"gone"}, Published: true}, "body")

	if err := db.DeleteWork("del"); err != nil {
		t.Fatalf("DeleteWork: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted work still has checksum %q", cs)
	}
	rows, _ := db.ByKeyword("gone")
	if len(rows) != 0 {
		t.Errorf("expected no works for keyword after delete, got %d", len(rows))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWork(WorkRow{Name: "up", Title: "Old", Checksum: "1", Keywords: []string{"x"}, Published: true}, "old body")
	_ = db.UpsertWork(WorkRow{Name: "up", Title: "New", Checksum: "2", Keywords: []string{"y"}, Published: true}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if rows, _ := db.ByKeyword("x"); len(rows) != 0 {
		t.Error("old keyword should be removed on upsert")
	}
	if rows, _ := db.ByKeyword("y"); len(rows) != 1 || rows[0].Title != "New" {
		t.Errorf("new keyword rows = %+v", rows)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWork(WorkRow{Name: "s", Title: "Search Me", Checksum: "1", Published: true}, "uniqueword appears here")
	_ = db.UpsertWork(WorkRow{Name: "h", Title: "Hidden", Checksum: "2", Published: false}, "uniqueword hidden")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}
