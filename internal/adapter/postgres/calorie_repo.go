package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trimtrack/internal/domain"
)

var _ domain.CalorieRepository = (*DB)(nil)

// AddAnalysis stores a. Foods, nutrition and suggestions are kept as JSONB.
func (d *DB) AddAnalysis(ctx context.Context, userID int64, a domain.CalorieAnalysis) error {
	foods, err := json.Marshal(a.Foods)
	if err != nil {
		return fmt.Errorf("encode foods: %w", err)
	}
	nutrition, err := json.Marshal(a.Nutrition)
	if err != nil {
		return fmt.Errorf("encode nutrition: %w", err)
	}
	suggestions, err := json.Marshal(a.Suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}

	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO calorie_analyses(id, user_id, ts, original_input, foods, total_calories, nutrition, suggestions, confidence)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		a.ID, userID, a.Timestamp.UTC(), a.OriginalInput, foods, a.TotalCalories, nutrition, suggestions, a.Confidence,
	)
	return err
}

// ListAnalysesSince returns the analyses at or after since, newest first.
func (d *DB) ListAnalysesSince(ctx context.Context, userID int64, since time.Time) ([]domain.CalorieAnalysis, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, ts, original_input, foods, total_calories, nutrition, suggestions, confidence
		FROM calorie_analyses WHERE user_id = $1 AND ts >= $2 ORDER BY ts DESC;`,
		userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CalorieAnalysis
	for rows.Next() {
		var (
			a                             domain.CalorieAnalysis
			foods, nutrition, suggestions []byte
		)
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.OriginalInput, &foods, &a.TotalCalories, &nutrition, &suggestions, &a.Confidence); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(foods, &a.Foods); err != nil {
			return nil, fmt.Errorf("decode foods of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal(nutrition, &a.Nutrition); err != nil {
			return nil, fmt.Errorf("decode nutrition of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal(suggestions, &a.Suggestions); err != nil {
			return nil, fmt.Errorf("decode suggestions of %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes an analysis and reports whether it existed.
func (d *DB) DeleteAnalysis(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM calorie_analyses WHERE id = $1 AND user_id = $2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
