package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoRecord is returned (wrapped) by stores when a lookup matches no row.
var ErrNoRecord = errors.New("no record")

type Service struct {
	ID               int64
	Title            string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	DurationMinutes  int
	Active           bool
	Display          bool
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Planning holds the three comma-separated availability lists exactly as entered.
type Planning struct {
	ID               int64
	Title            string
	AllowTimes       string
	DisabledDates    string
	DisabledWeekdays string
	Active           bool
}

type Appointment struct {
	ID          int64
	UserID      *int64
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	ServiceID   int64
	DateTime    time.Time
}

const (
	PostDraft     = 0
	PostPublished = 1
)

type Post struct {
	ID            int64
	Title         string
	Slug          string
	AuthorID      int64
	AuthorName    string
	Content       string
	Excerpt       string
	FeaturedImage string
	Status        int
	CreatedOn     time.Time
	UpdatedOn     time.Time
	Likes         int
}

type Comment struct {
	ID        int64
	PostID    int64
	Name      string
	Email     string
	Body      string
	CreatedOn time.Time
	Approved  bool
}

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
}

// Identity is the requester of a workflow call. The zero value is an anonymous visitor.
type Identity struct {
	UserID      int64
	Username    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

func IdentityOf(u User) Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
	}
}

// WallClock keeps the clock reading of t and drops its zone. Appointment times are stored
// and compared in this form.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
