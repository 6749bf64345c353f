package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"eventnotifier/internal/domain"
)

const pqUniqueViolation = "23505"

type userRepository struct {
	DB *sql.DB
}

// NewUserRepository returns a domain.UserRepository implemented with Postgres.
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `user_id, first_name, last_name, birthday, anniversary, time_zone, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (user_id, first_name, last_name, birthday, anniversary, time_zone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Birthday.String(), nullableDate(u.Anniversary), u.TimeZone, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListByTimeZone is served by the users_time_zone_idx index.
func (r *userRepository) ListByTimeZone(ctx context.Context, zone string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE time_zone = $1`
	return r.list(ctx, query, zone)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateTimeZone(ctx context.Context, id, zone string, updatedAt time.Time) error {
	query := `
		UPDATE users
		SET time_zone = $1, updated_at = $2
		WHERE user_id = $3
	`
	res, err := r.DB.ExecContext(ctx, query, zone, updatedAt, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one row. Dates are stored as text so that year-less
// "--MM-DD" values survive the round trip; an unparsable date is left zero
// and the record is skipped downstream instead of failing the whole list.
func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var birthday, anniversary, zone sql.NullString
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &birthday, &anniversary, &zone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.TimeZone = zone.String
	if d, err := domain.ParseCalendarDate(birthday.String); err == nil {
		u.Birthday = d
	}
	if d, err := domain.ParseCalendarDate(anniversary.String); err == nil {
		u.Anniversary = &d
	}
	return u, nil
}

func nullableDate(d *domain.CalendarDate) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
