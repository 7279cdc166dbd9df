package storage

import (
	"context"
	"fmt"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/planning"
)

type PlanningRepository struct {
	pool *db.Pool
}

func NewPlanningRepository(pool *db.Pool) *PlanningRepository {
	return &PlanningRepository{pool: pool}
}

// Save validates p and upserts it by title. An invalid planning returns the validation error
// and nothing is written.
func (r *PlanningRepository) Save(ctx context.Context, p model.Planning) (model.Planning, error) {
	if err := planning.Validate(p); err != nil {
		return model.Planning{}, err
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO plannings (title, allow_times, disabled_dates, disabled_weekdays, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE
		SET allow_times = EXCLUDED.allow_times,
			disabled_dates = EXCLUDED.disabled_dates,
			disabled_weekdays = EXCLUDED.disabled_weekdays,
			active = EXCLUDED.active
		RETURNING id
	`, p.Title, p.AllowTimes, p.DisabledDates, p.DisabledWeekdays, p.Active).Scan(&p.ID)
	if err != nil {
		return model.Planning{}, fmt.Errorf("save planning %q: %w", p.Title, err)
	}
	return p, nil
}

// ListActive returns active plannings ordered by title.
func (r *PlanningRepository) ListActive(ctx context.Context) ([]model.Planning, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, allow_times, disabled_dates, disabled_weekdays, active
		FROM plannings
		WHERE active
		ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Planning
	for rows.Next() {
		var p model.Planning
		if err := rows.Scan(&p.ID, &p.Title, &p.AllowTimes, &p.DisabledDates, &p.DisabledWeekdays, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
