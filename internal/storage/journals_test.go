package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matsen/patentwatch/internal/journal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "patents.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordJournal(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	inserted, err := db.RecordJournal(ctx, "45_2025", "raw/45_2025_Part_I.pdf", "raw/45_2025_Part_II.pdf")
	if err != nil {
		t.Fatalf("RecordJournal() error = %v", err)
	}
	if !inserted {
		t.Error("RecordJournal() inserted = false, want true")
	}

	got, err := db.GetJournal(ctx, "45_2025")
	if err != nil {
		t.Fatalf("GetJournal() error = %v", err)
	}
	if got.Status != journal.StatusDownloaded {
		t.Errorf("Status = %q, want %q", got.Status, journal.StatusDownloaded)
	}
	if got.Part1Path != "raw/45_2025_Part_I.pdf" || got.Part2Path != "raw/45_2025_Part_II.pdf" {
		t.Errorf("paths = %q, %q", got.Part1Path, got.Part2Path)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRecordJournal_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.RecordJournal(ctx, "45_2025", "a.pdf", ""); err != nil {
		t.Fatalf("RecordJournal() error = %v", err)
	}
	if err := db.SetJournalStatus(ctx, "45_2025", journal.StatusExtracted); err != nil {
		t.Fatalf("SetJournalStatus() error = %v", err)
	}

	inserted, err := db.RecordJournal(ctx, "45_2025", "other.pdf", "other2.pdf")
	if err != nil {
		t.Fatalf("second RecordJournal() error = %v", err)
	}
	if inserted {
		t.Error("second RecordJournal() inserted = true, want false")
	}

	got, _ := db.GetJournal(ctx, "45_2025")
	if got.Status != journal.StatusExtracted {
		t.Errorf("Status = %q, want existing row untouched", got.Status)
	}
	if got.Part1Path != "a.pdf" || got.Part2Path != "" {
		t.Errorf("paths changed to %q, %q", got.Part1Path, got.Part2Path)
	}
}

func TestRecordJournal_NoParts(t *testing.T) {
	db := openTestDB(t)
	_, err := db.RecordJournal(context.Background(), "45_2025", "", "")
	if !errors.Is(err, ErrNoParts) {
		t.Errorf("RecordJournal() error = %v, want ErrNoParts", err)
	}
}

func TestListJournalsByStatus(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, id := range []string{"46_2025", "44_2025", "45_2025"} {
		if _, err := db.RecordJournal(ctx, id, id+".pdf", ""); err != nil {
			t.Fatalf("RecordJournal(%s) error = %v", id, err)
		}
	}
	if err := db.SetJournalStatus(ctx, "45_2025", journal.StatusErrorExtracting); err != nil {
		t.Fatal(err)
	}

	downloaded, err := db.ListJournalsByStatus(ctx, journal.StatusDownloaded)
	if err != nil {
		t.Fatalf("ListJournalsByStatus() error = %v", err)
	}
	if len(downloaded) != 2 || downloaded[0].JournalID != "44_2025" || downloaded[1].JournalID != "46_2025" {
		t.Errorf("downloaded = %+v", downloaded)
	}

	all, err := db.ListJournalsByStatus(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	known, err := db.KnownJournalIDs(ctx)
	if err != nil {
		t.Fatalf("KnownJournalIDs() error = %v", err)
	}
	if len(known) != 3 || !known["45_2025"] {
		t.Errorf("KnownJournalIDs() = %v", known)
	}
}

func TestSetJournalStatus_Errors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.SetJournalStatus(ctx, "missing", journal.StatusExtracted); !errors.Is(err, ErrJournalNotFound) {
		t.Errorf("missing journal error = %v, want ErrJournalNotFound", err)
	}
	if _, err := db.RecordJournal(ctx, "45_2025", "a.pdf", ""); err != nil {
		t.Fatal(err)
	}
	if err := db.SetJournalStatus(ctx, "45_2025", "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bogus status error = %v, want ErrInvalidStatus", err)
	}
	if _, err := db.GetJournal(ctx, "missing"); !errors.Is(err, ErrJournalNotFound) {
		t.Errorf("GetJournal() error = %v, want ErrJournalNotFound", err)
	}
}
