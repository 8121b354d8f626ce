package postgres

import (
	"context"
	"fmt"

	"trimtrack/internal/domain"
)

var _ domain.WeightRepository = (*DB)(nil)

// ListWeightEntries returns every entry of userID ordered by day.
func (d *DB) ListWeightEntries(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, day, value, unit, note, created_at FROM weight_entries WHERE user_id = $1 ORDER BY day, created_at;",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeightEntry
	for rows.Next() {
		var e domain.WeightEntry
		if err := rows.Scan(&e.ID, &e.Day, &e.Value, &e.Unit, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveWeightEntry upserts e by id. A second id on an occupied day fails with
// domain.ErrDuplicateDate.
func (d *DB) SaveWeightEntry(ctx context.Context, userID int64, e domain.WeightEntry) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO weight_entries(id, user_id, day, value, unit, note, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET day = EXCLUDED.day, value = EXCLUDED.value, unit = EXCLUDED.unit, note = EXCLUDED.note
		WHERE weight_entries.user_id = EXCLUDED.user_id;`,
		e.ID, userID, e.Day, e.Value, string(e.Unit), e.Note, e.CreatedAt.UTC(),
	)
	if isUniqueViolation(err, "weight_entries_user_day") {
		return fmt.Errorf("save %s: %w", e.Day, domain.ErrDuplicateDate)
	}
	return err
}

// ReplaceWeightEntry deletes oldID and inserts e in one transaction, so a
// failed insert keeps the old row.
func (d *DB) ReplaceWeightEntry(ctx context.Context, userID int64, oldID string, e domain.WeightEntry) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM weight_entries WHERE id = $1 AND user_id = $2;", oldID, userID,
	); err != nil {
		return fmt.Errorf("replace delete %s: %w", oldID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO weight_entries(id, user_id, day, value, unit, note, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7);`,
		e.ID, userID, e.Day, e.Value, string(e.Unit), e.Note, e.CreatedAt.UTC(),
	)
	if isUniqueViolation(err, "weight_entries_user_day") {
		return fmt.Errorf("replace %s: %w", e.Day, domain.ErrDuplicateDate)
	}
	if err != nil {
		return fmt.Errorf("replace insert %s: %w", e.Day, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// DeleteWeightEntry removes an entry and reports whether it existed.
func (d *DB) DeleteWeightEntry(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = $1 AND user_id = $2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
