package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/guregu/null.v4"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/i18n"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type notificationService struct {
	noteRepo repository.NotificationRepository
	emailSvc EmailService
	composer *i18n.Composer
	now      func() time.Time
}

type NotificationOption func(*notificationService)

// WithNotificationClock replaces time.Now for repeat-policy windows.
func WithNotificationClock(now func() time.Time) NotificationOption {
	return func(s *notificationService) { s.now = now }
}

func NewNotificationService(
	noteRepo repository.NotificationRepository,
	emailSvc EmailService,
	composer *i18n.Composer,
	opts ...NotificationOption,
) NotificationService {
	s := &notificationService{
		noteRepo: noteRepo,
		emailSvc: emailSvc,
		composer: composer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify records a notification for the request's owner and then emails them.
// The record is the source of truth: an email failure is logged and the
// created notification is still returned without error.
func (s *notificationService) Notify(ctx context.Context, req NotificationRequest) (*domain.Notification, error) {
	if req.Owner == nil || req.Owner.UserID == "" {
		return nil, fmt.Errorf("notification %s has no recipient", req.Type)
	}

	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.DedupeKey != "" {
		metadata[domain.MetadataDedupeKey] = req.DedupeKey
	}
	if _, err := json.Marshal(metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	if req.DedupeKey != "" {
		if since, ok := req.Repeat.Window(s.now()); ok {
			seen, err := s.noteRepo.ExistsByDedupeKey(ctx, req.Owner.UserID, req.DedupeKey, since)
			if err != nil {
				return nil, fmt.Errorf("failed to check repeat policy: %w", err)
			}
			if seen {
				return nil, ErrDuplicateSuppressed
			}
		}
	}

	vars := make(i18n.Vars, len(req.Vars)+2)
	for k, v := range req.Vars {
		vars[k] = v
	}
	vars["ownerName"] = req.Owner.Name
	vars["orgName"] = req.Owner.OrgName

	composed := s.composer.Compose(req.Type, req.Variant, req.Owner.Locale, vars, req.ActionURL)
	metadata["locale"] = composed.Locale

	n := &domain.Notification{
		UserID:   req.Owner.UserID,
		OrgID:    null.NewString(req.Owner.OrgID, req.Owner.OrgID != ""),
		Category: req.Category,
		Type:     req.Type,
		Priority: req.Priority,
		Level:    req.Level,
		Title:    composed.Title,
		Message:  composed.Message,
		Metadata: metadata,
	}
	if req.ActionURL != "" {
		n.ActionURL = null.StringFrom(req.ActionURL)
		n.ActionLabel = null.NewString(composed.ActionLabel, composed.ActionLabel != "")
	}

	if err := s.noteRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if composed.Email != nil {
		s.sendEmail(ctx, n, req.Owner, composed.Email)
	} else if composed.Degraded {
		logger.Warn("Notification recorded without email, no template available",
			"notification_id", n.ID, "type", n.Type)
	}

	return n, nil
}

func (s *notificationService) sendEmail(ctx context.Context, n *domain.Notification, owner *domain.Owner, email *i18n.Email) {
	if owner.Email == "" {
		logger.Warn("Owner has no email address, skipping email",
			"notification_id", n.ID, "user_id", owner.UserID, "org_id", owner.OrgID)
		return
	}

	deliveryID, err := s.emailSvc.SendEmail(ctx, EmailMessage{
		Recipients: []string{owner.Email},
		Subject:    email.Subject,
		HTML:       email.HTML,
		Text:       email.Text,
	})
	if err != nil {
		logger.Error("Failed to send notification email",
			"notification_id", n.ID, "type", n.Type, "recipient", owner.Email, "error", err)
		return
	}
	logger.Info("Notification email sent",
		"notification_id", n.ID, "type", n.Type, "recipient", owner.Email, "delivery_id", deliveryID)
}

// IsSuppressed reports whether err only means the repeat policy held the
// event back.
func IsSuppressed(err error) bool {
	return errors.Is(err, ErrDuplicateSuppressed)
}
