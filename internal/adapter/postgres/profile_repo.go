package postgres

import (
	"context"
	"database/sql"
	"errors"

	"trimtrack/internal/domain"
)

var _ domain.ProfileRepository = (*DB)(nil)

// GetProfile returns the stored profile, or nil when none was saved.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := d.sql.QueryRowContext(ctx,
		`SELECT user_id, name, age, gender, height_cm, activity_level, target_weight, target_unit,
			daily_calorie_goal, daily_burned_calories, created_at, updated_at
		FROM profiles WHERE user_id = $1;`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.Gender, &p.HeightCm, &p.ActivityLevel, &p.TargetWeight, &p.TargetUnit,
		&p.DailyCalorieGoal, &p.DailyBurnedCalories, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile upserts p.
func (d *DB) SaveProfile(ctx context.Context, p *domain.Profile) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles(user_id, name, age, gender, height_cm, activity_level, target_weight, target_unit,
			daily_calorie_goal, daily_burned_calories, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			height_cm = EXCLUDED.height_cm,
			activity_level = EXCLUDED.activity_level,
			target_weight = EXCLUDED.target_weight,
			target_unit = EXCLUDED.target_unit,
			daily_calorie_goal = EXCLUDED.daily_calorie_goal,
			daily_burned_calories = EXCLUDED.daily_burned_calories,
			updated_at = EXCLUDED.updated_at;`,
		p.UserID, p.Name, p.Age, string(p.Gender), p.HeightCm, string(p.ActivityLevel), p.TargetWeight, string(p.TargetUnit),
		p.DailyCalorieGoal, p.DailyBurnedCalories, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return err
}
