package services

import (
	"context"
	"log/slog"

	"lettermill/internal/domain"
)

type newsletterService struct {
	repo   domain.SubscriptionRepository
	mailer domain.Mailer
	logger *slog.Logger
}

// NewNewsletterService creates a NewsletterService that broadcasts through
// the given mailer.
func NewNewsletterService(repo domain.SubscriptionRepository, mailer domain.Mailer, logger *slog.Logger) domain.NewsletterService {
	return &newsletterService{repo: repo, mailer: mailer, logger: logger}
}

// Publish sends one newsletter issue to every confirmed subscriber, one
// recipient at a time. The first failed send aborts the broadcast and is
// surfaced with the offending recipient's address.
func (s *newsletterService) Publish(ctx context.Context, title, html, text string) error {
	subscribers, err := s.repo.ListConfirmed(ctx)
	if err != nil {
		return err
	}
	for _, email := range subscribers {
		if err := s.mailer.Send(email.String(), title, html, text); err != nil {
			return &domain.DeliveryError{Recipient: email.String(), Err: err}
		}
	}
	s.logger.Info("newsletter published", "title", title, "recipients", len(subscribers))
	return nil
}
