package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/matsen/patentwatch/internal/journal"
)

type journalRow struct {
	JournalID string `db:"journal_id"`
	Part1Path string `db:"part1_path"`
	Part2Path string `db:"part2_path"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r journalRow) artifact() journal.Artifact {
	return journal.Artifact{
		JournalID: r.JournalID,
		Part1Path: r.Part1Path,
		Part2Path: r.Part2Path,
		Status:    journal.Status(r.Status),
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

var journalColumns = []string{"journal_id", "part1_path", "part2_path", "status", "created_at", "updated_at"}

// KnownJournalIDs returns every tracked journal id regardless of status.
func (d *DB) KnownJournalIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if err := d.db.SelectContext(ctx, &ids, "SELECT journal_id FROM journals"); err != nil {
		return nil, fmt.Errorf("listing journal ids: %w", err)
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

// RecordJournal adds a journal with status downloaded. An existing journal is
// left untouched, so repeated discovery runs are safe. It reports whether a
// new row was inserted.
func (d *DB) RecordJournal(ctx context.Context, id, part1Path, part2Path string) (bool, error) {
	if part1Path == "" && part2Path == "" {
		return false, fmt.Errorf("journal %s: %w", id, ErrNoParts)
	}

	ts := now()
	n, err := execute(ctx, d.db, sq.Insert("journals").
		Options("OR IGNORE").
		Columns(journalColumns...).
		Values(id, part1Path, part2Path, string(journal.StatusDownloaded), ts, ts))
	if err != nil {
		return false, fmt.Errorf("recording journal %s: %w", id, err)
	}
	return n > 0, nil
}

// GetJournal retrieves a single ledger row.
func (d *DB) GetJournal(ctx context.Context, id string) (journal.Artifact, error) {
	query, args, err := sq.Select(journalColumns...).From("journals").
		Where(sq.Eq{"journal_id": id}).ToSql()
	if err != nil {
		return journal.Artifact{}, fmt.Errorf("building query: %w", err)
	}

	var rows []journalRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return journal.Artifact{}, fmt.Errorf("getting journal %s: %w", id, err)
	}
	if len(rows) == 0 {
		return journal.Artifact{}, fmt.Errorf("journal %s: %w", id, ErrJournalNotFound)
	}
	return rows[0].artifact(), nil
}

// ListJournalsByStatus returns journals with the given status ordered by id.
// An empty status lists every journal.
func (d *DB) ListJournalsByStatus(ctx context.Context, status journal.Status) ([]journal.Artifact, error) {
	b := sq.Select(journalColumns...).From("journals").OrderBy("journal_id")
	if status != "" {
		b = b.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var rows []journalRow
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}

	artifacts := make([]journal.Artifact, 0, len(rows))
	for _, r := range rows {
		artifacts = append(artifacts, r.artifact())
	}
	return artifacts, nil
}

// SetJournalStatus updates a journal's status unconditionally.
func (d *DB) SetJournalStatus(ctx context.Context, id string, status journal.Status) error {
	if !status.Valid() {
		return fmt.Errorf("journal status %q: %w", status, ErrInvalidStatus)
	}

	n, err := execute(ctx, d.db, sq.Update("journals").
		Set("status", string(status)).
		Set("updated_at", now()).
		Where(sq.Eq{"journal_id": id}))
	if err != nil {
		return fmt.Errorf("setting status of journal %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("journal %s: %w", id, ErrJournalNotFound)
	}
	return nil
}
