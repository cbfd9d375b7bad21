package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/matsen/patentwatch/internal/history"
	"github.com/matsen/patentwatch/internal/logging"
	"github.com/matsen/patentwatch/internal/patent"
	"github.com/matsen/patentwatch/internal/storage"
)

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unix newline", storage.ClearConfirmation + "\n", storage.ClearConfirmation},
		{"windows newline", storage.ClearConfirmation + "\r\n", storage.ClearConfirmation},
		{"no newline", "yes", "yes"},
		{"only first line", "abc\ndef\n", "abc"},
		{"empty", "", ""},
		{"keeps inner spaces", " delete all records \n", " delete all records "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readLine(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("readLine() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadLine_ConfirmationMustMatchExactly(t *testing.T) {
	for _, input := range []string{"delete all records\n", "DELETE ALL RECORDS \n", "y\n"} {
		got, _ := readLine(strings.NewReader(input))
		if got == storage.ClearConfirmation {
			t.Errorf("input %q should not confirm", input)
		}
	}
}

func TestBuildListFilter(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		category string
		limit    int
		want     storage.Filter
		wantErr  bool
	}{
		{name: "no filters", limit: 50, want: storage.Filter{Limit: 50}},
		{name: "status", status: "classified", want: storage.Filter{Status: patent.StatusClassified}},
		{name: "category any case", category: "non-software", want: storage.Filter{Category: patent.CategoryNonSoftware}},
		{name: "bad status", status: "done", wantErr: true},
		{name: "bad category", category: "Firmware", wantErr: true},
		{name: "negative limit", limit: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := buildListFilter(tt.status, tt.category, "", tt.limit)
			if (msg != "") != tt.wantErr {
				t.Fatalf("buildListFilter() msg = %q, wantErr %v", msg, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("buildListFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExportCategoryList(t *testing.T) {
	got, err := exportCategoryList([]string{"unknown"}, true)
	if err != nil {
		t.Fatalf("exportCategoryList() error = %v", err)
	}
	want := []patent.Category{patent.CategorySoftware, patent.CategoryHybrid, patent.CategoryUnknown}
	if len(got) != len(want) {
		t.Fatalf("exportCategoryList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := exportCategoryList([]string{"Firmware"}, false); err == nil {
		t.Error("exportCategoryList() should reject unknown categories")
	}
	if got, _ := exportCategoryList(nil, false); got != nil {
		t.Errorf("exportCategoryList(nil) = %v, want nil", got)
	}
}

func TestExportRecords_Merges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_patents.json")
	if err := history.Save(path, []patent.Record{
		{ApplicationNo: "1 A", Title: "kept"},
		{ApplicationNo: "2 A", Title: "stale"},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := exportRecords(path, []patent.Record{{ApplicationNo: "2 A", Title: "fresh"}}, logging.Discard())
	if err != nil {
		t.Fatalf("exportRecords() error = %v", err)
	}
	want := ExportResult{Path: path, Exported: 1, Existing: 2, Total: 2}
	if result != want {
		t.Errorf("exportRecords() = %+v, want %+v", result, want)
	}

	got, err := history.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Title != "fresh" {
		t.Errorf("file after export = %+v", got)
	}
}

func TestExportRecords_CorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_patents.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := exportRecords(path, []patent.Record{{ApplicationNo: "3 A"}}, logging.Discard())
	if err != nil {
		t.Fatalf("exportRecords() error = %v", err)
	}
	if result.Warning == "" || result.Existing != 0 || result.Total != 1 {
		t.Errorf("exportRecords() = %+v", result)
	}

	got, err := history.Load(path)
	if errors.Is(err, history.ErrCorrupt) || len(got) != 1 {
		t.Errorf("file after export: %v records, err %v", len(got), err)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"Système de contrôle", 10, "Système..."},
		{"日本語のタイトル", 5, "日本..."},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.maxLen)
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) produced invalid UTF-8", tt.in, tt.maxLen)
		}
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestPrintRecordsHuman(t *testing.T) {
	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	printRecordsHuman([]patent.Record{
		{ApplicationNo: "202511087359 A", Title: "Smart irrigation controller", Status: patent.StatusClassified, Category: patent.CategoryHybrid},
		{ApplicationNo: "202511087360 A", Title: "Herbal paste", Status: patent.StatusNewlyExtracted},
	})

	out := buf.String()
	for _, want := range []string{"202511087359 A", "Hybrid", "Smart irrigation controller", "newly_extracted", "2 record(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, " - ") {
		t.Errorf("unclassified record should show '-' category:\n%s", out)
	}
}

func TestStatusResponse_JournalID(t *testing.T) {
	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	if err := outputJSON(StatusResponse{Status: "downloaded", JournalID: "45_2025"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"journal_id": "45_2025"`) || strings.Contains(out, `"path"`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}
