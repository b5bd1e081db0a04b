package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lettermill/internal/domain"
)

const defaultAcquireTimeout = 2 * time.Second

type subscriptionRepository struct {
	DB             *sql.DB
	logger         *slog.Logger
	acquireTimeout time.Duration
}

// NewSubscriptionRepository returns a SubscriptionRepository backed by
// PostgreSQL. acquireTimeout bounds how long Begin waits for a connection;
// zero or negative selects the 2s default.
func NewSubscriptionRepository(db *sql.DB, logger *slog.Logger, acquireTimeout time.Duration) domain.SubscriptionRepository {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &subscriptionRepository{DB: db, logger: logger, acquireTimeout: acquireTimeout}
}

// pgTx pins one pooled connection for the lifetime of a transaction.
type pgTx struct {
	tx   *sql.Tx
	conn *sql.Conn
}

func (t *pgTx) Commit() error {
	err := t.tx.Commit()
	t.conn.Close()
	return err
}

func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	t.conn.Close()
	return err
}

func pgTxFrom(tx domain.Tx) (*pgTx, error) {
	t, ok := tx.(*pgTx)
	if !ok {
		return nil, &domain.PersistenceError{Op: "transaction", Err: errors.New("foreign transaction handle")}
	}
	return t, nil
}

func (r *subscriptionRepository) Begin(ctx context.Context) (domain.Tx, error) {
	// Only connection acquisition is bounded here; the transaction itself
	// stays tied to the caller's context.
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	conn, err := r.DB.Conn(acquireCtx)
	cancel()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "acquire connection", Err: err}
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, &domain.PersistenceError{Op: "begin transaction", Err: err}
	}
	return &pgTx{tx: tx, conn: conn}, nil
}

func (r *subscriptionRepository) InsertSubscriber(ctx context.Context, tx domain.Tx, sub *domain.NewSubscriber) (string, error) {
	t, err := pgTxFrom(tx)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	query := `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := t.tx.ExecContext(ctx, query, id, sub.Email.String(), sub.Name.String(), time.Now().UTC(), domain.StatusPendingConfirmation); err != nil {
		return "", &domain.PersistenceError{Op: "insert subscriber", Err: err}
	}
	return id, nil
}

func (r *subscriptionRepository) StoreToken(ctx context.Context, tx domain.Tx, subscriberID, token string) error {
	t, err := pgTxFrom(tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`
	if _, err := t.tx.ExecContext(ctx, query, token, subscriberID); err != nil {
		return &domain.PersistenceError{Op: "store subscription token", Err: err}
	}
	return nil
}

func (r *subscriptionRepository) ConfirmByToken(ctx context.Context, token string) error {
	query := `
		SELECT subscriber_id
		FROM subscription_tokens
		WHERE subscription_token = $1
	`
	var subscriberID string
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&subscriberID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTokenNotFound
	}
	if err != nil {
		return &domain.PersistenceError{Op: "look up subscription token", Err: err}
	}
	update := `
		UPDATE subscriptions
		SET status = $1
		WHERE id = $2
	`
	if _, err := r.DB.ExecContext(ctx, update, domain.StatusConfirmed, subscriberID); err != nil {
		return &domain.PersistenceError{Op: "confirm subscriber", Err: err}
	}
	return nil
}

func (r *subscriptionRepository) ListConfirmed(ctx context.Context) ([]domain.SubscriberEmail, error) {
	query := `
		SELECT email
		FROM subscriptions
		WHERE status = $1
	`
	rows, err := r.DB.QueryContext(ctx, query, domain.StatusConfirmed)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list confirmed subscribers", Err: err}
	}
	defer rows.Close()

	var emails []domain.SubscriberEmail
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &domain.PersistenceError{Op: "scan confirmed subscriber", Err: err}
		}
		email, parseErr := domain.ParseSubscriberEmail(raw)
		if parseErr != nil {
			// A structurally invalid stored email must never abort a
			// broadcast; skip the row and keep going.
			r.logger.Warn("confirmed subscriber has an invalid stored email, skipping", "error", parseErr.Error())
			continue
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list confirmed subscribers", Err: err}
	}
	return emails, nil
}
