package storage

import (
	"context"
	"fmt"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const serviceColumns = `id, title, description, short_description, price::text, duration, active, display`

// ListDisplayed returns the publicly listed services ordered by title.
func (r *CatalogRepository) ListDisplayed(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services WHERE display ORDER BY title`)
}

// ListActive returns the bookable services ordered by title.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services WHERE active ORDER BY title`)
}

func (r *CatalogRepository) ListByTitle(ctx context.Context, title string) ([]model.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services WHERE title = $1 ORDER BY id`, title)
}

func (r *CatalogRepository) Get(ctx context.Context, id int64) (model.Service, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	s, err := scanService(row)
	if err != nil {
		return model.Service{}, noRecord(err, fmt.Sprintf("service %d", id))
	}
	return s, nil
}

// Save inserts a service or updates the one with the same title.
func (r *CatalogRepository) Save(ctx context.Context, s model.Service) (model.Service, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (title, description, short_description, price, duration, active, display)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		ON CONFLICT (title) DO UPDATE
		SET description = EXCLUDED.description,
			short_description = EXCLUDED.short_description,
			price = EXCLUDED.price,
			duration = EXCLUDED.duration,
			active = EXCLUDED.active,
			display = EXCLUDED.display
		RETURNING id
	`, s.Title, s.Description, s.ShortDescription, s.Price.StringFixed(2), s.DurationMinutes, s.Active, s.Display).Scan(&s.ID)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

// Delete removes a service. It fails with a protected error while appointments reference it.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("service %d: %w", id, model.ErrNoRecord)
	}
	return nil
}

func (r *CatalogRepository) list(ctx context.Context, query string, args ...any) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	var price string
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.ShortDescription, &price, &s.DurationMinutes, &s.Active, &s.Display); err != nil {
		return model.Service{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return model.Service{}, fmt.Errorf("service %d price %q: %w", s.ID, price, err)
	}
	s.Price = p
	return s, nil
}
