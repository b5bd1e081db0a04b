package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Subscription status values. A subscription starts pending and only ever
// moves forward to confirmed.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

const maxNameLength = 256

// forbiddenNameChars are rejected in subscriber names to keep stored names
// inert in HTML and SQL contexts.
const forbiddenNameChars = `/()"<>\{}`

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SubscriberName is a validated subscriber display name. The zero value is
// invalid; values are only obtained through ParseSubscriberName.
type SubscriberName struct {
	value string
}

func (n SubscriberName) String() string { return n.value }

// ParseSubscriberName validates raw into a SubscriberName. The trimmed input
// must be non-empty, at most 256 characters, and free of forbidden characters.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "must not exceed 256 characters"}
	}
	if strings.ContainsAny(trimmed, forbiddenNameChars) {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "contains a forbidden character"}
	}
	return SubscriberName{value: trimmed}, nil
}

// SubscriberEmail is a validated email address. The zero value is invalid;
// values are only obtained through ParseSubscriberEmail.
type SubscriberEmail struct {
	value string
}

func (e SubscriberEmail) String() string { return e.value }

// ParseSubscriberEmail validates raw against the email grammar: a single @,
// a non-empty local part, and a dotted domain with no whitespace.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if !emailRegexp.MatchString(raw) {
		return SubscriberEmail{}, &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}
	return SubscriberEmail{value: raw}, nil
}

// NewSubscriber is a validated (name, email) pair handed from the request
// boundary to the store. It is never persisted directly.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// Subscription is a persisted subscriber record.
type Subscription struct {
	ID           string
	Email        string
	Name         string
	SubscribedAt time.Time
	Status       string
}

// Tx is a transaction handle returned by SubscriptionRepository.Begin.
// Writes made through it are invisible to other callers until Commit;
// Rollback discards them all.
type Tx interface {
	Commit() error
	Rollback() error
}

// SubscriptionRepository defines the transactional subscription store.
type SubscriptionRepository interface {
	// Begin opens a transaction. Acquisition blocks briefly when the pool is
	// exhausted and fails with a PersistenceError past the acquire timeout.
	Begin(ctx context.Context) (Tx, error)
	// InsertSubscriber creates a pending_confirmation row inside tx and
	// returns the generated subscription id.
	InsertSubscriber(ctx context.Context, tx Tx, sub *NewSubscriber) (string, error)
	// StoreToken binds a confirmation token to a subscriber inside tx.
	StoreToken(ctx context.Context, tx Tx, subscriberID, token string) error
	// ConfirmByToken flips the owning subscriber to confirmed. Unknown tokens
	// fail with ErrTokenNotFound; re-confirming a confirmed subscriber is a
	// successful no-op.
	ConfirmByToken(ctx context.Context, token string) error
	// ListConfirmed returns the email addresses of all confirmed subscribers.
	// Rows whose stored email no longer parses are skipped, never an error.
	ListConfirmed(ctx context.Context) ([]SubscriberEmail, error)
}

// SubscriptionService defines the onboarding and confirmation workflows.
type SubscriptionService interface {
	// Subscribe validates the raw pair, persists a pending subscription with
	// a confirmation token in one transaction, then sends the confirmation
	// email. A failed send does not undo the committed row.
	Subscribe(ctx context.Context, name, email string) error
	// Confirm consumes a token from a confirmation link.
	Confirm(ctx context.Context, token string) error
}

// NewsletterService defines the broadcast workflow.
type NewsletterService interface {
	// Publish delivers one newsletter issue to every confirmed subscriber,
	// aborting on the first per-recipient failure.
	Publish(ctx context.Context, title, html, text string) error
}
