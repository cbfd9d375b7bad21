package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/matsen/patentwatch/internal/patent"
)

// ClearConfirmation must be passed to ClearPatents verbatim.
const ClearConfirmation = "DELETE ALL RECORDS"

type patentRow struct {
	ApplicationNo       string `db:"application_no"`
	Title               string `db:"title"`
	DateOfFiling        string `db:"date_of_filing"`
	PublicationDate     string `db:"publication_date"`
	Abstract            string `db:"abstract"`
	Applicant           string `db:"applicant"`
	Inventor            string `db:"inventor"`
	ClassificationRaw   string `db:"classification_raw"`
	ClassificationCodes string `db:"classification_codes"`
	Category            string `db:"category"`
	Status              string `db:"status"`
	PublicationPart     string `db:"publication_part"`
	JournalID           string `db:"journal_id"`
	CreatedAt           string `db:"created_at"`
	UpdatedAt           string `db:"updated_at"`
}

var patentSelectColumns = []string{
	"application_no", "title", "date_of_filing", "publication_date", "abstract",
	"applicant", "inventor", "classification_raw", "classification_codes",
	"category", "status", "publication_part", "journal_id", "created_at", "updated_at",
}

// record converts a row. A malformed classification_codes value is logged
// and leaves the codes empty; reclassifying rebuilds them.
func (r patentRow) record(log logrus.FieldLogger) patent.Record {
	rec := patent.Record{
		ApplicationNo:     r.ApplicationNo,
		Title:             r.Title,
		DateOfFiling:      r.DateOfFiling,
		PublicationDate:   r.PublicationDate,
		Abstract:          r.Abstract,
		Applicant:         r.Applicant,
		Inventor:          r.Inventor,
		RawClassification: r.ClassificationRaw,
		Category:          patent.Category(r.Category),
		Status:            patent.Status(r.Status),
		PublicationPart:   r.PublicationPart,
		JournalID:         r.JournalID,
		CreatedAt:         parseTime(r.CreatedAt),
		UpdatedAt:         parseTime(r.UpdatedAt),
	}
	if r.ClassificationCodes != "" {
		if err := json.Unmarshal([]byte(r.ClassificationCodes), &rec.ClassificationCodes); err != nil {
			log.WithError(err).WithField("application_no", r.ApplicationNo).Warn("malformed stored classification codes")
			rec.ClassificationCodes = nil
		}
	}
	return rec
}

func encodeCodes(codes []string) (string, error) {
	if len(codes) == 0 {
		return "", nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UpsertPatent inserts a record, replacing any existing row with the same
// application number entirely. Records without a status are stored as
// newly extracted.
func (d *DB) UpsertPatent(ctx context.Context, rec patent.Record) error {
	if strings.TrimSpace(rec.ApplicationNo) == "" {
		return fmt.Errorf("upserting patent: empty application number")
	}
	if rec.Status == "" {
		rec.Status = patent.StatusNewlyExtracted
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("patent %s status %q: %w", rec.ApplicationNo, rec.Status, ErrInvalidStatus)
	}

	codes, err := encodeCodes(rec.ClassificationCodes)
	if err != nil {
		return fmt.Errorf("encoding codes for %s: %w", rec.ApplicationNo, err)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	_, err = execute(ctx, tx, sq.Replace("patents").
		Columns(patentSelectColumns...).
		Values(
			rec.ApplicationNo, rec.Title, rec.DateOfFiling, rec.PublicationDate, rec.Abstract,
			rec.Applicant, rec.Inventor, rec.RawClassification, codes,
			string(rec.Category), string(rec.Status), rec.PublicationPart, rec.JournalID, ts, ts,
		))
	if err != nil {
		return fmt.Errorf("upserting patent %s: %w", rec.ApplicationNo, err)
	}

	if _, err := execute(ctx, tx, sq.Delete("patents_fts").Where(sq.Eq{"application_no": rec.ApplicationNo})); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", rec.ApplicationNo, err)
	}
	_, err = execute(ctx, tx, sq.Insert("patents_fts").
		Columns("application_no", "title", "abstract", "applicant").
		Values(rec.ApplicationNo, rec.Title, rec.Abstract, rec.Applicant))
	if err != nil {
		return fmt.Errorf("indexing patent %s: %w", rec.ApplicationNo, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing patent %s: %w", rec.ApplicationNo, err)
	}
	return nil
}

// Filter narrows ListPatents. Zero values match everything.
type Filter struct {
	Status   patent.Status
	Category patent.Category
	Query    string // full-text query over title, abstract and applicant
	Limit    int
}

// ListPatents returns records matching the filter ordered by application number.
func (d *DB) ListPatents(ctx context.Context, f Filter) ([]patent.Record, error) {
	b := sq.Select(patentSelectColumns...).From("patents").OrderBy("application_no")
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": string(f.Category)})
	}
	if q := prepareFTSQuery(f.Query); q != "" {
		b = b.Where("application_no IN (SELECT application_no FROM patents_fts WHERE patents_fts MATCH ?)", q)
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var rows []patentRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing patents: %w", err)
	}

	records := make([]patent.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record(d.log))
	}
	return records, nil
}

// ListPatentsByStatus returns every record with the given status.
func (d *DB) ListPatentsByStatus(ctx context.Context, status patent.Status) ([]patent.Record, error) {
	return d.ListPatents(ctx, Filter{Status: status})
}

// GetPatent looks a record up by its full application number, falling back
// to the bare number without its suffix token.
func (d *DB) GetPatent(ctx context.Context, applicationNo string) (patent.Record, error) {
	key := patent.SearchKey(applicationNo)
	query, args, err := sq.Select(patentSelectColumns...).From("patents").
		Where(sq.Or{
			sq.Eq{"application_no": strings.TrimSpace(applicationNo)},
			sq.Eq{"application_no": key},
			// Prefix match without LIKE so % and _ in the key stay literal.
			sq.Expr("substr(application_no, 1, ?) = ?", utf8.RuneCountInString(key)+1, key+" "),
		}).
		OrderBy("application_no").
		ToSql()
	if err != nil {
		return patent.Record{}, fmt.Errorf("building query: %w", err)
	}

	var rows []patentRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return patent.Record{}, fmt.Errorf("getting patent %s: %w", applicationNo, err)
	}
	if len(rows) == 0 || key == "" {
		return patent.Record{}, fmt.Errorf("patent %s: %w", applicationNo, ErrPatentNotFound)
	}
	for _, r := range rows {
		if r.ApplicationNo == strings.TrimSpace(applicationNo) {
			return r.record(d.log), nil
		}
	}
	return rows[0].record(d.log), nil
}

// CountPatents returns the number of records per status.
func (d *DB) CountPatents(ctx context.Context) (map[patent.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := d.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS n FROM patents GROUP BY status"); err != nil {
		return nil, fmt.Errorf("counting patents: %w", err)
	}

	counts := make(map[patent.Status]int, len(rows))
	for _, r := range rows {
		counts[patent.Status(r.Status)] = r.N
	}
	return counts, nil
}

// UpdateClassification stores the derived codes and category and marks the
// record classified. Content fields are not touched.
func (d *DB) UpdateClassification(ctx context.Context, applicationNo string, category patent.Category, codes []string) error {
	encoded, err := encodeCodes(codes)
	if err != nil {
		return fmt.Errorf("encoding codes for %s: %w", applicationNo, err)
	}

	n, err := execute(ctx, d.db, sq.Update("patents").
		Set("category", string(category)).
		Set("classification_codes", encoded).
		Set("status", string(patent.StatusClassified)).
		Set("updated_at", now()).
		Where(sq.Eq{"application_no": applicationNo}))
	if err != nil {
		return fmt.Errorf("classifying patent %s: %w", applicationNo, err)
	}
	if n == 0 {
		return fmt.Errorf("patent %s: %w", applicationNo, ErrPatentNotFound)
	}
	return nil
}

// ResetClassified reverts every classified record to newly extracted,
// clearing category and codes. It returns the number of records reset.
func (d *DB) ResetClassified(ctx context.Context) (int64, error) {
	n, err := execute(ctx, d.db, sq.Update("patents").
		Set("category", "").
		Set("classification_codes", "").
		Set("status", string(patent.StatusNewlyExtracted)).
		Set("updated_at", now()).
		Where(sq.Eq{"status": string(patent.StatusClassified)}))
	if err != nil {
		return 0, fmt.Errorf("resetting classifications: %w", err)
	}
	return n, nil
}

// ClearPatents deletes every record. It refuses to run unless confirm equals
// ClearConfirmation and returns the number of records deleted.
func (d *DB) ClearPatents(ctx context.Context, confirm string) (int64, error) {
	if confirm != ClearConfirmation {
		return 0, ErrNotConfirmed
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := execute(ctx, tx, sq.Delete("patents"))
	if err != nil {
		return 0, fmt.Errorf("clearing patents: %w", err)
	}
	if _, err := execute(ctx, tx, sq.Delete("patents_fts")); err != nil {
		return 0, fmt.Errorf("clearing patents_fts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing clear: %w", err)
	}
	return n, nil
}

// prepareFTSQuery quotes each term so user input cannot inject FTS5 syntax.
func prepareFTSQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
