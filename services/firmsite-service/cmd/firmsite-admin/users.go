package main

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage site accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersCreate,
}

var userFlags struct {
	email     string
	firstName string
	lastName  string
	phone     string
	password  string
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVar(&userFlags.email, "email", "", "Email address (required)")
	f.StringVar(&userFlags.firstName, "first-name", "", "First name")
	f.StringVar(&userFlags.lastName, "last-name", "", "Last name")
	f.StringVar(&userFlags.phone, "phone", "", "Phone number")
	f.StringVar(&userFlags.password, "password", "", "Initial password (required)")

	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}

func newUser(username string) (model.User, error) {
	username = strings.TrimSpace(username)
	email := strings.TrimSpace(userFlags.email)
	if username == "" {
		return model.User{}, errors.New("username is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return model.User{}, fmt.Errorf("invalid email %q", email)
	}
	if len(userFlags.password) < 8 {
		return model.User{}, errors.New("password must be at least 8 characters")
	}
	hash, err := accounts.HashPassword(userFlags.password)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(userFlags.firstName),
		LastName:     strings.TrimSpace(userFlags.lastName),
		PhoneNumber:  strings.TrimSpace(userFlags.phone),
		PasswordHash: hash,
	}, nil
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	user, err := newUser(args[0])
	if err != nil {
		return err
	}
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		created, err := storage.NewUserRepository(pool).Create(ctx, user)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return fmt.Errorf("username %q is taken", user.Username)
			}
			return fmt.Errorf("create user: %w", err)
		}
		cmd.Printf("Created user %s (id %d)\n", created.Username, created.ID)
		return nil
	})
}
