// Package history reads and writes exported record files.
//
// A file ending in .jsonl holds one record per line; anything else holds a
// single JSON array.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/patentwatch/internal/patent"
)

// ErrCorrupt is returned alongside an empty result when an export file
// exists but cannot be decoded as records.
var ErrCorrupt = errors.New("export file is corrupt")

// Conventional export file names in the output directory.
const (
	AllRecordsFile        = "all_patents.json"
	ClassifiedRecordsFile = "classified_patents.json"
)

// MaxLineCapacity bounds one JSONL line.
const MaxLineCapacity = 1024 * 1024

func isJSONL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// Load reads records from path. A missing file yields no records and no
// error. A file that exists but does not decode yields no records and an
// error wrapping ErrCorrupt, which callers may treat as a warning.
func Load(path string) ([]patent.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if isJSONL(path) {
		return decodeLines(path, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, ErrCorrupt)
	}
	var records []patent.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrCorrupt)
	}
	return records, nil
}

func decodeLines(path string, data []byte) ([]patent.Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineCapacity)

	var records []patent.Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec patent.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %v: %w", path, lineNum, err, ErrCorrupt)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrCorrupt)
	}
	return records, nil
}

// Merge combines existing and fresh records by application number, with
// fresh records winning. The result is ordered by application number.
func Merge(existing, fresh []patent.Record) []patent.Record {
	byNo := make(map[string]patent.Record, len(existing)+len(fresh))
	for _, r := range existing {
		byNo[r.ApplicationNo] = r
	}
	for _, r := range fresh {
		byNo[r.ApplicationNo] = r
	}

	merged := make([]patent.Record, 0, len(byNo))
	for _, r := range byNo {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ApplicationNo < merged[j].ApplicationNo
	})
	return merged
}

// Save writes records to path atomically using a temp file and rename.
func Save(path string, records []patent.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	data, err := encode(path, records)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing records: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

func encode(path string, records []patent.Record) ([]byte, error) {
	if !isJSONL(path) {
		if records == nil {
			records = []patent.Record{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding records: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record %d: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
