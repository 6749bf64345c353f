package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventnotifier/internal/domain"
)

func TestLedgerRepository_Insert(t *testing.T) {
	ctx := context.Background()
	entry := domain.LedgerEntry{UserID: "u1", MessageKey: "birthday#2026", CreatedAt: time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "first insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sent_messages \(user_id, message_key, created_at\).*ON CONFLICT \(user_id, message_key\) DO NOTHING`).
					WithArgs("u1", "birthday#2026", entry.CreatedAt).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "conflict affects zero rows",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sent_messages`).
					WithArgs("u1", "birthday#2026", entry.CreatedAt).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errIs:   domain.ErrAlreadySent,
		},
		{
			name: "unique violation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sent_messages`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrAlreadySent,
		},
		{
			name: "store unavailable",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sent_messages`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
			errIs:   sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewLedgerRepository(db).Insert(ctx, entry)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
