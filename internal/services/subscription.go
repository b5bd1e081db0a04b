package services

import (
	"context"
	"fmt"
	"log/slog"

	"lettermill/internal/domain"
)

type subscriptionService struct {
	repo    domain.SubscriptionRepository
	tokens  domain.TokenGenerator
	email   domain.EmailService
	baseURL string
	logger  *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService. baseURL is the
// externally reachable root the confirmation link is built from.
func NewSubscriptionService(repo domain.SubscriptionRepository, tokens domain.TokenGenerator, email domain.EmailService, baseURL string, logger *slog.Logger) domain.SubscriptionService {
	return &subscriptionService{
		repo:    repo,
		tokens:  tokens,
		email:   email,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Subscribe runs the onboarding workflow: validation, one transaction for
// the subscriber row and its confirmation token, then the confirmation
// email. The email is a best-effort side effect after commit; its failure
// never unwinds the committed rows.
func (s *subscriptionService) Subscribe(ctx context.Context, rawName, rawEmail string) error {
	name, err := domain.ParseSubscriberName(rawName)
	if err != nil {
		return err
	}
	email, err := domain.ParseSubscriberEmail(rawEmail)
	if err != nil {
		return err
	}
	sub := &domain.NewSubscriber{Name: name, Email: email}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	id, err := s.repo.InsertSubscriber(ctx, tx, sub)
	if err != nil {
		s.rollback(tx)
		return err
	}
	token, err := s.tokens.Generate()
	if err != nil {
		s.rollback(tx)
		return fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	if err := s.repo.StoreToken(ctx, tx, id, token); err != nil {
		s.rollback(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit subscription", Err: err}
	}
	s.logger.Info("new subscriber persisted", "subscriber_id", id)

	data := &domain.ConfirmationEmailData{
		Email:           email.String(),
		Name:            name.String(),
		ConfirmationURL: fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token),
	}
	if err := s.email.SendConfirmation(ctx, data); err != nil {
		return &domain.DeliveryError{Recipient: email.String(), Err: err}
	}
	return nil
}

// Confirm consumes a confirmation token. Any miss is a uniform
// ErrTokenNotFound; confirming an already-confirmed subscriber succeeds.
func (s *subscriptionService) Confirm(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrTokenNotFound
	}
	return s.repo.ConfirmByToken(ctx, token)
}

func (s *subscriptionService) rollback(tx domain.Tx) {
	if err := tx.Rollback(); err != nil {
		s.logger.Error("failed to roll back subscription transaction", "error", err)
	}
}
