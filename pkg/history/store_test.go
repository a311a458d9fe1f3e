package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *JSONStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSave(t *testing.T) {
	store := testStore(t)

	rec := &Record{Text: "https://example.com", Format: decode.FormatQRCode}
	if err := store.Save(rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected ID to be generated")
	}
	if rec.ScannedAt.IsZero() {
		t.Error("expected ScannedAt to be set")
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.Text != rec.Text {
		t.Errorf("expected text %q, got %q", rec.Text, got.Text)
	}
}

func TestReturnsCopies(t *testing.T) {
	store := testStore(t)

	rec := &Record{Text: "original", Format: decode.FormatQRCode, Points: []decode.Point{{X: 1, Y: 2}}}
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}
	rec.Text = "changed after save"

	got, _ := store.Get(rec.ID)
	got.Text = "changed via get"
	got.Points[0].X = 99

	list, _ := store.List()
	list[0].Text = "changed via list"

	found, _ := store.Search("orig")
	if len(found) != 1 {
		t.Fatalf("search found %d records", len(found))
	}
	found[0].Text = "changed via search"

	again, _ := store.Get(rec.ID)
	if again.Text != "original" || again.Points[0].X != 1 {
		t.Errorf("stored record mutated: %+v", again)
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := &Record{Text: "4006381333931", Format: decode.FormatEAN13}
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("expected 1 record, got %d", reopened.Count())
	}
	got, err := reopened.Get(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format != decode.FormatEAN13 {
		t.Errorf("format = %s", got.Format)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, text := range []string{"first", "second", "third"} {
		if err := store.Save(&Record{Text: text, ScannedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Text != "third" || list[2].Text != "first" {
		t.Errorf("unexpected order: %v, %v, %v", list[0].Text, list[1].Text, list[2].Text)
	}
}

func TestLimitDropsOldest(t *testing.T) {
	store := testStore(t)
	store.SetLimit(2)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := store.Save(&Record{Text: string(rune('a' + i)), ScannedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}

	if store.Count() != 2 {
		t.Fatalf("expected 2 records, got %d", store.Count())
	}
	if found, _ := store.Search("a"); len(found) != 0 {
		t.Error("oldest record survived the limit")
	}
}

func TestSearchAndDelete(t *testing.T) {
	store := testStore(t)
	store.Save(&Record{Text: "WIFI:S:home;T:WPA;P:secret;;"})
	keep := &Record{Text: "https://go.dev"}
	store.Save(keep)

	found, err := store.Search("GO.DEV")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ID != keep.ID {
		t.Fatalf("search returned %d records", len(found))
	}

	if err := store.Delete(keep.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(keep.ID); err == nil {
		t.Error("expected error deleting missing record")
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 record, got %d", store.Count())
	}
}

func TestHandleResult(t *testing.T) {
	store := testStore(t)
	var consumer scanner.ResultConsumer = store

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	consumer.HandleResult(scanner.Scan{
		ID:     "scan-1",
		Result: decode.Result{Text: "hello", Format: decode.FormatQRCode, DecodedAt: at},
	})

	rec, err := store.Get("scan-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Text != "hello" || !rec.ScannedAt.Equal(at) {
		t.Errorf("stored %+v", rec)
	}
}
