package storage

import (
	"context"
	"fmt"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, phone_number, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Username, u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.PasswordHash).Scan(&u.ID)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, phone_number, password_hash
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.PasswordHash)
	if err != nil {
		return model.User{}, noRecord(err, fmt.Sprintf("user %q", username))
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, phone_number, password_hash
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.PasswordHash)
	if err != nil {
		return model.User{}, noRecord(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

// UpdateProfile changes the contact details of an account. Username and email stay fixed.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4
		WHERE id = $1
	`, id, firstName, lastName, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, model.ErrNoRecord)
	}
	return nil
}
