package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventnotifier/internal/domain"
)

type ledgerRepository struct {
	DB *sql.DB
}

// NewLedgerRepository returns a domain.Ledger backed by the sent_messages table.
func NewLedgerRepository(db *sql.DB) domain.Ledger {
	return &ledgerRepository{DB: db}
}

// Insert adds the entry only if (user_id, message_key) is absent. Zero rows
// affected means another attempt got there first.
func (r *ledgerRepository) Insert(ctx context.Context, e domain.LedgerEntry) error {
	query := `
		INSERT INTO sent_messages (user_id, message_key, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, message_key) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, e.UserID, e.MessageKey, e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadySent
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadySent
	}
	return nil
}
