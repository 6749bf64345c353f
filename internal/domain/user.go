package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrInvalidTimeZone  = errors.New("invalid time zone")
	ErrTimeZoneRequired = errors.New("time zone is required")
	ErrNameRequired     = errors.New("firstName and lastName are required")
)

// User is a person whose recurring events are notified.
// swagger:model User
type User struct {
	ID          string        `json:"userId"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Birthday    CalendarDate  `json:"birthday"`
	Anniversary *CalendarDate `json:"anniversary,omitempty"`
	TimeZone    string        `json:"timezone"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewUser returns a new User with the given fields. ID is typically set by the service on create.
func NewUser(firstName, lastName string, birthday CalendarDate, timeZone string, createdAt, updatedAt time.Time) *User {
	return &User{
		FirstName: firstName,
		LastName:  lastName,
		Birthday:  birthday,
		TimeZone:  timeZone,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventDate returns the stored date for the given event type.
// ok is false when the user has no date recorded for it.
func (u *User) EventDate(t EventType) (date CalendarDate, ok bool) {
	switch t {
	case EventBirthday:
		return u.Birthday, !u.Birthday.IsZero()
	case EventAnniversary:
		if u.Anniversary == nil || u.Anniversary.IsZero() {
			return CalendarDate{}, false
		}
		return *u.Anniversary, true
	}
	return CalendarDate{}, false
}

// UserDirectory is the read side used by the trigger pipeline.
// ListByTimeZone must be served by an index on the zone value.
type UserDirectory interface {
	ListByTimeZone(ctx context.Context, zone string) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	UserDirectory
	Create(ctx context.Context, user *User) error
	UpdateTimeZone(ctx context.Context, id, zone string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CreateUserInput holds the fields accepted when registering a user.
type CreateUserInput struct {
	FirstName   string
	LastName    string
	Birthday    string
	Anniversary string
	TimeZone    string
}

// UserService defines the business logic for user profiles.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateTimeZone(ctx context.Context, id, zone string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// ZoneValidator reports whether a zone belongs to the canonical zone set.
type ZoneValidator interface {
	Contains(zone string) bool
}

// TokenIssuer issues bearer tokens (e.g. JWT) for operators of the admin API.
type TokenIssuer interface {
	Issue(subject string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
