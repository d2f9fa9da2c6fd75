package service

import (
	"context"
	"errors"

	"fleetrent-backend/internal/domain"
)

var (
	// ErrInvalidMetadata rejects a single notification whose metadata cannot
	// be encoded.
	ErrInvalidMetadata = errors.New("invalid notification metadata")
	// ErrDuplicateSuppressed is returned when the repeat policy already saw
	// the event. It is not a failure.
	ErrDuplicateSuppressed = errors.New("notification suppressed by repeat policy")
)

// EmailMessage is one outbound email.
type EmailMessage struct {
	Recipients []string
	Subject    string
	HTML       string
	Text       string
}

type EmailService interface {
	// SendEmail delivers msg and returns the provider's delivery id.
	SendEmail(ctx context.Context, msg EmailMessage) (string, error)
}

// NotificationRequest describes one event to notify an organization owner about.
type NotificationRequest struct {
	Owner     *domain.Owner
	Type      domain.NotificationType
	Variant   string
	Category  domain.NotificationCategory
	Priority  domain.NotificationPriority
	Level     domain.NotificationLevel
	Vars      map[string]any
	ActionURL string
	Metadata  map[string]any
	// DedupeKey identifies the event for Repeat. Ignored when Repeat is
	// always or the key is empty.
	DedupeKey string
	Repeat    domain.RepeatPolicy
}

type NotificationService interface {
	Notify(ctx context.Context, req NotificationRequest) (*domain.Notification, error)
}
