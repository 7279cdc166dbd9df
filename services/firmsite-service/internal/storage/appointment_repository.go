package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `id, user_id, email, first_name, last_name, phone_number, service_id, date_time`

// Create inserts the appointment and its outbox event in one transaction.
func (r *AppointmentRepository) Create(ctx context.Context, a model.Appointment, eventType string) (int64, error) {
	a.DateTime = model.WallClock(a.DateTime)
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO appointments (user_id, email, first_name, last_name, phone_number, service_id, date_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, a.UserID, a.Email, a.FirstName, a.LastName, a.PhoneNumber, a.ServiceID, a.DateTime).Scan(&a.ID); err != nil {
			return err
		}
		return r.insertEvent(ctx, tx, eventType, a)
	})
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// Update overwrites the contact, service and time fields of an existing row.
func (r *AppointmentRepository) Update(ctx context.Context, a model.Appointment, eventType string) error {
	a.DateTime = model.WallClock(a.DateTime)
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE appointments
			SET email = $2,
				first_name = $3,
				last_name = $4,
				phone_number = $5,
				service_id = $6,
				date_time = $7
			WHERE id = $1
		`, a.ID, a.Email, a.FirstName, a.LastName, a.PhoneNumber, a.ServiceID, a.DateTime)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("appointment %d: %w", a.ID, model.ErrNoRecord)
		}
		return r.insertEvent(ctx, tx, eventType, a)
	})
}

func (r *AppointmentRepository) Delete(ctx context.Context, a model.Appointment, eventType string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, a.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("appointment %d: %w", a.ID, model.ErrNoRecord)
		}
		return r.insertEvent(ctx, tx, eventType, a)
	})
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, noRecord(err, fmt.Sprintf("appointment %d", id))
	}
	return a, nil
}

// ListForBooker unions the appointments linked to the account with those booked under its
// email, from after onwards, ordered by date_time.
func (r *AppointmentRepository) ListForBooker(ctx context.Context, userID int64, email string, after time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date_time > $3
			AND ((user_id IS NOT NULL AND user_id = $1) OR email = $2)
		ORDER BY date_time, id
	`, userID, email, model.WallClock(after))
}

// ListAfter returns every appointment later than after, ordered by date_time.
func (r *AppointmentRepository) ListAfter(ctx context.Context, after time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date_time > $1
		ORDER BY date_time, id
	`, model.WallClock(after))
}

func (r *AppointmentRepository) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, a model.Appointment) error {
	evt, err := outbox.AppointmentEvent(eventType, a)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	if err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.FirstName, &a.LastName, &a.PhoneNumber, &a.ServiceID, &a.DateTime); err != nil {
		return model.Appointment{}, err
	}
	a.DateTime = model.WallClock(a.DateTime)
	return a, nil
}
