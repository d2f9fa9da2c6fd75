package domain

import (
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusInactive VehicleStatus = "inactive"
)

type Vehicle struct {
	ID                  string        `json:"id" db:"id"`
	OrgID               string        `json:"org_id" db:"org_id"`
	Make                string        `json:"make" db:"make"`
	Model               string        `json:"model" db:"model"`
	PlateNumber         string        `json:"plate_number" db:"plate_number"`
	Status              VehicleStatus `json:"status" db:"status"`
	InsuranceProvider   null.String   `json:"insurance_provider" db:"insurance_provider"`
	InsuranceExpiryDate null.Time     `json:"insurance_expiry_date" db:"insurance_expiry_date"`
}

func (v *Vehicle) Label() string {
	label := strings.TrimSpace(v.Make + " " + v.Model)
	if v.PlateNumber != "" {
		label += " (" + v.PlateNumber + ")"
	}
	return label
}

// DaysUntilInsuranceExpiry returns whole days, rounded up, until the insurance
// expires. It is negative or zero once the expiry instant has passed.
func (v *Vehicle) DaysUntilInsuranceExpiry(now time.Time) int {
	if !v.InsuranceExpiryDate.Valid {
		return 0
	}
	return CeilDays(v.InsuranceExpiryDate.Time.Sub(now))
}

// ExpiryTier is the alert bucket for an upcoming insurance expiry.
type ExpiryTier struct {
	Name     string               `json:"name" yaml:"name"`
	Priority NotificationPriority `json:"priority" yaml:"priority"`
	Level    NotificationLevel    `json:"level" yaml:"level"`
}

var (
	ExpiryTierUrgent = ExpiryTier{Name: "urgent", Priority: PriorityUrgent, Level: LevelError}
	ExpiryTierHigh   = ExpiryTier{Name: "high", Priority: PriorityHigh, Level: LevelError}
	ExpiryTierNotice = ExpiryTier{Name: "notice", Priority: PriorityMedium, Level: LevelWarning}
)

// ClassifyInsuranceExpiry maps days until expiry to a tier. urgentDays and
// highDays are inclusive upper bounds.
func ClassifyInsuranceExpiry(days, urgentDays, highDays int) ExpiryTier {
	switch {
	case days <= urgentDays:
		return ExpiryTierUrgent
	case days <= highDays:
		return ExpiryTierHigh
	default:
		return ExpiryTierNotice
	}
}
