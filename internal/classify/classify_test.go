package classify

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matsen/patentwatch/internal/logging"
	"github.com/matsen/patentwatch/internal/patent"
)

func TestNormalizeCodes(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"G06F 1/00, H04L9/00", []string{"G06F1/00", "H04L9/00"}},
		{":g06f0009500000, a61k0036000000", []string{"G06F0009500000", "A61K0036000000"}},
		{"H04L 45/02,\n G06N 3/08 ,,", []string{"H04L45/02", "G06N3/08"}},
		{"G06Q 10/06 G06Q 50/02", []string{"G06Q10/06G06Q50/02"}},
		{"", nil},
		{" , : ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeCodes(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeCodes(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  patent.Category
	}{
		{"no codes", nil, patent.CategoryUnknown},
		{"software only", []string{"G06F1/00"}, patent.CategorySoftware},
		{"mixed", []string{"G06F1/00", "A61B5/00"}, patent.CategoryHybrid},
		{"non-software", []string{"A61B5/00"}, patent.CategoryNonSoftware},
		{"all prefixes", []string{"G06N3/08", "H04L9/00", "G16H40/67", "G05B19/418"}, patent.CategorySoftware},
		{"H04 without L", []string{"H04W72/04"}, patent.CategoryNonSoftware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.codes, DefaultPrefixes); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.codes, got, tt.want)
			}
		})
	}
}

func TestClassify_CustomPrefixes(t *testing.T) {
	if got := Classify([]string{"H04W72/04"}, []string{"h04w"}); got != patent.CategorySoftware {
		t.Errorf("Classify() = %q, want %q", got, patent.CategorySoftware)
	}
}

type fakeStore struct {
	records []patent.Record
	updates map[string]patent.Category
	codes   map[string][]string
	failOn  string
	listErr error
}

func (s *fakeStore) ListPatentsByStatus(_ context.Context, status patent.Status) ([]patent.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []patent.Record
	for _, r := range s.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateClassification(_ context.Context, appNo string, category patent.Category, codes []string) error {
	if appNo == s.failOn {
		return errors.New("database is locked")
	}
	if s.updates == nil {
		s.updates = make(map[string]patent.Category)
		s.codes = make(map[string][]string)
	}
	s.updates[appNo] = category
	s.codes[appNo] = codes
	return nil
}

func TestClassifierRun(t *testing.T) {
	store := &fakeStore{
		records: []patent.Record{
			{ApplicationNo: "1", RawClassification: "G06F 1/00, H04L9/00", Status: patent.StatusNewlyExtracted},
			{ApplicationNo: "2", RawClassification: "G06F 1/00, A61B 5/00", Status: patent.StatusNewlyExtracted},
			{ApplicationNo: "3", Status: patent.StatusNewlyExtracted},
			{ApplicationNo: "4", RawClassification: "A61K 9/00", Status: patent.StatusNewlyExtracted},
			{ApplicationNo: "5", RawClassification: "A01B 1/00", Status: patent.StatusNewlyExtracted},
			{ApplicationNo: "6", RawClassification: "G06F 1/00", Status: patent.StatusClassified},
		},
		failOn: "5",
	}

	sum, err := New(store, nil, logging.Discard()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Processed != 5 || sum.Classified != 4 || sum.Failed != 1 {
		t.Errorf("Run() = %+v", sum)
	}
	wantCats := map[patent.Category]int{
		patent.CategorySoftware:    1,
		patent.CategoryHybrid:      1,
		patent.CategoryUnknown:     1,
		patent.CategoryNonSoftware: 1,
	}
	if !reflect.DeepEqual(sum.Categories, wantCats) {
		t.Errorf("Categories = %v, want %v", sum.Categories, wantCats)
	}

	if store.updates["1"] != patent.CategorySoftware || !reflect.DeepEqual(store.codes["1"], []string{"G06F1/00", "H04L9/00"}) {
		t.Errorf("record 1 = %q %v", store.updates["1"], store.codes["1"])
	}
	if _, ok := store.updates["6"]; ok {
		t.Error("classified record was reclassified")
	}
}

func TestClassifierRun_ListFails(t *testing.T) {
	store := &fakeStore{listErr: errors.New("no such table")}
	if _, err := New(store, nil, logging.Discard()).Run(context.Background()); err == nil {
		t.Error("Run() should fail when records cannot be listed")
	}
}
