package storage

import (
	"errors"
	"fmt"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, model.ErrNoRecord)
}

// IsProtected reports a foreign key violation, e.g. deleting a service that appointments
// still reference.
func IsProtected(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// noRecord turns pgx.ErrNoRows into model.ErrNoRecord so callers outside storage need not
// know about pgx.
func noRecord(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNoRecord)
	}
	return err
}
