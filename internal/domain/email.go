package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
// The core never retries a send; failures surface to the caller.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ConfirmationEmailData holds data for the double opt-in confirmation email.
type ConfirmationEmailData struct {
	Email           string
	Name            string
	ConfirmationURL string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendConfirmation(ctx context.Context, data *ConfirmationEmailData) error
}
