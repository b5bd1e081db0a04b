package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lettermill/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustNewSubscriber(t *testing.T, name, email string) *domain.NewSubscriber {
	t.Helper()
	n, err := domain.ParseSubscriberName(name)
	require.NoError(t, err)
	e, err := domain.ParseSubscriberEmail(email)
	require.NoError(t, err)
	return &domain.NewSubscriber{Name: n, Email: e}
}

func TestSubscriptionRepository_OnboardingTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("insert subscriber and token commits", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", sqlmock.AnyArg(), domain.StatusPendingConfirmation).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO subscription_tokens`).
			WithArgs("aBcDeFgHiJkLmNoPqRsTuVwXy", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)

		id, err := repo.InsertSubscriber(ctx, tx, mustNewSubscriber(t, "le guin", "ursula_le_guin@gmail.com"))
		require.NoError(t, err)
		_, err = uuid.Parse(id)
		require.NoError(t, err, "subscription id should be a UUID")

		require.NoError(t, repo.StoreToken(ctx, tx, id, "aBcDeFgHiJkLmNoPqRsTuVwXy"))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token store failure rolls everything back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO subscription_tokens`).
			WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)

		id, err := repo.InsertSubscriber(ctx, tx, mustNewSubscriber(t, "le guin", "ursula_le_guin@gmail.com"))
		require.NoError(t, err)

		err = repo.StoreToken(ctx, tx, id, "aBcDeFgHiJkLmNoPqRsTuVwXy")
		require.Error(t, err)
		var pErr *domain.PersistenceError
		require.ErrorAs(t, err, &pErr)

		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure is a persistence error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)

		_, err = repo.InsertSubscriber(ctx, tx, mustNewSubscriber(t, "le guin", "ursula_le_guin@gmail.com"))
		var pErr *domain.PersistenceError
		require.ErrorAs(t, err, &pErr)
		require.ErrorIs(t, err, sql.ErrConnDone)

		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign transaction handle is rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		_, err = repo.InsertSubscriber(ctx, foreignTx{}, mustNewSubscriber(t, "le guin", "ursula_le_guin@gmail.com"))
		var pErr *domain.PersistenceError
		require.ErrorAs(t, err, &pErr)
	})
}

type foreignTx struct{}

func (foreignTx) Commit() error   { return nil }
func (foreignTx) Rollback() error { return nil }

func TestSubscriptionRepository_ConfirmByToken(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name:  "flips subscriber to confirmed",
			token: "aBcDeFgHiJkLmNoPqRsTuVwXy",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT subscriber_id`).
					WithArgs("aBcDeFgHiJkLmNoPqRsTuVwXy").
					WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow("sub-uuid-1"))
				mock.ExpectExec(`UPDATE subscriptions`).
					WithArgs(domain.StatusConfirmed, "sub-uuid-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:  "already confirmed subscriber stays confirmed",
			token: "aBcDeFgHiJkLmNoPqRsTuVwXy",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT subscriber_id`).
					WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow("sub-uuid-1"))
				mock.ExpectExec(`UPDATE subscriptions`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:  "unknown token",
			token: "zzzzzzzzzzzzzzzzzzzzzzzzz",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT subscriber_id`).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
			errIs:   domain.ErrTokenNotFound,
		},
		{
			name:  "lookup failure is a persistence error",
			token: "aBcDeFgHiJkLmNoPqRsTuVwXy",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT subscriber_id`).
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
			repo := NewSubscriptionRepository(db, testLogger(), 0)
			err = repo.ConfirmByToken(ctx, tt.token)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubscriptionRepository_ListConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns confirmed emails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT email`).
			WithArgs(domain.StatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"email"}).
				AddRow("ursula_le_guin@gmail.com").
				AddRow("octavia_butler@gmail.com"))

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		emails, err := repo.ListConfirmed(ctx)
		require.NoError(t, err)
		require.Len(t, emails, 2)
		assert.Equal(t, "ursula_le_guin@gmail.com", emails[0].String())
		assert.Equal(t, "octavia_butler@gmail.com", emails[1].String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips rows with invalid stored email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT email`).
			WillReturnRows(sqlmock.NewRows([]string{"email"}).
				AddRow("not-an-email").
				AddRow("ursula_le_guin@gmail.com"))

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		emails, err := repo.ListConfirmed(ctx)
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "ursula_le_guin@gmail.com", emails[0].String())
	})

	t.Run("query failure is a persistence error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT email`).
			WillReturnError(sql.ErrConnDone)

		repo := NewSubscriptionRepository(db, testLogger(), 0)
		_, err = repo.ListConfirmed(ctx)
		var pErr *domain.PersistenceError
		require.ErrorAs(t, err, &pErr)
	})
}
