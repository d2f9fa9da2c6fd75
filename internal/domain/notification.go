package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

type NotificationType string

const (
	NotificationRentStarted          NotificationType = "RENT_STARTED"
	NotificationRentCompleted        NotificationType = "RENT_COMPLETED"
	NotificationRentOverdue          NotificationType = "RENT_OVERDUE"
	NotificationRentReturnReminder   NotificationType = "RENT_RETURN_REMINDER"
	NotificationCarInsuranceExpiring NotificationType = "CAR_INSURANCE_EXPIRING"
	NotificationVehicleDoubleBooked  NotificationType = "VEHICLE_DOUBLE_BOOKED"
)

type NotificationCategory string

const (
	CategoryRental  NotificationCategory = "RENTAL"
	CategoryVehicle NotificationCategory = "VEHICLE"
	CategorySystem  NotificationCategory = "SYSTEM"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// MetadataDedupeKey is the metadata entry repeat policies look up.
const MetadataDedupeKey = "dedupe_key"

type Notification struct {
	ID          string               `json:"id" db:"id"`
	UserID      string               `json:"user_id" db:"user_id"`
	OrgID       null.String          `json:"org_id" db:"org_id"`
	Category    NotificationCategory `json:"category" db:"category"`
	Type        NotificationType     `json:"type" db:"type"`
	Priority    NotificationPriority `json:"priority" db:"priority"`
	Level       NotificationLevel    `json:"level" db:"level"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	IsRead      bool                 `json:"is_read" db:"is_read"`
	IsDismissed bool                 `json:"is_dismissed" db:"is_dismissed"`
	ActionURL   null.String          `json:"action_url" db:"action_url"`
	ActionLabel null.String          `json:"action_label" db:"action_label"`
	Metadata    map[string]any       `json:"metadata" db:"-"`
	ExpiresAt   null.Time            `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
}

func (n *Notification) DedupeKey() string {
	if n.Metadata == nil {
		return ""
	}
	key, _ := n.Metadata[MetadataDedupeKey].(string)
	return key
}

// RepeatPolicy decides whether an event that was already notified may be
// notified again.
type RepeatPolicy string

const (
	RepeatAlways RepeatPolicy = "always"
	RepeatDaily  RepeatPolicy = "daily"
	RepeatOnce   RepeatPolicy = "once"
)

func ParseRepeatPolicy(s string) (RepeatPolicy, error) {
	switch p := RepeatPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RepeatAlways, RepeatDaily, RepeatOnce:
		return p, nil
	}
	return "", fmt.Errorf("unknown repeat policy %q", s)
}

// Window returns the instant after which an earlier notification blocks a new
// one. ok is false when the policy never blocks.
func (p RepeatPolicy) Window(now time.Time) (since time.Time, ok bool) {
	switch p {
	case RepeatDaily:
		return now.Add(-24 * time.Hour), true
	case RepeatOnce:
		return time.Time{}, true
	}
	return time.Time{}, false
}
