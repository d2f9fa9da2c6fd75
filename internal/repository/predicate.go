package repository

import (
	"fmt"
	"time"

	"fleetrent-backend/internal/domain"
)

// RentTimeField names the rent timestamp a predicate compares against.
type RentTimeField string

const (
	FieldStartDate       RentTimeField = "start_date"
	FieldExpectedEndDate RentTimeField = "expected_end_date"
	FieldReturnedAt      RentTimeField = "returned_at"
)

// TimeFilter bounds one rent timestamp. From is inclusive; Until is exclusive
// unless UntilInclusive is set. A zero bound is open. Rents whose field is
// NULL never match.
type TimeFilter struct {
	Field          RentTimeField
	From           time.Time
	Until          time.Time
	UntilInclusive bool
}

// RentPredicate is always (status = Status) AND (time comparison) AND NOT deleted.
// Unreturned further requires returned_at IS NULL.
type RentPredicate struct {
	Status     domain.RentStatus
	Time       TimeFilter
	Unreturned bool
}

// StartedBy selects reserved rents whose start date has been reached.
func StartedBy(now time.Time) RentPredicate {
	return RentPredicate{
		Status: domain.RentStatusReserved,
		Time:   TimeFilter{Field: FieldStartDate, Until: now, UntilInclusive: true},
	}
}

// ReturnedBy selects active rents with a recorded return at or before now.
func ReturnedBy(now time.Time) RentPredicate {
	return RentPredicate{
		Status: domain.RentStatusActive,
		Time:   TimeFilter{Field: FieldReturnedAt, Until: now, UntilInclusive: true},
	}
}

// DueBy selects active, unreturned rents whose expected end date is at or
// before now.
func DueBy(now time.Time) RentPredicate {
	return RentPredicate{
		Status:     domain.RentStatusActive,
		Time:       TimeFilter{Field: FieldExpectedEndDate, Until: now, UntilInclusive: true},
		Unreturned: true,
	}
}

// DueWithin selects active, unreturned rents whose expected end date is in
// [from, until).
func DueWithin(from, until time.Time) RentPredicate {
	return RentPredicate{
		Status:     domain.RentStatusActive,
		Time:       TimeFilter{Field: FieldExpectedEndDate, From: from, Until: until},
		Unreturned: true,
	}
}

func (p RentPredicate) Validate() error {
	if p.Status == "" {
		return fmt.Errorf("rent predicate: status is required")
	}
	switch p.Time.Field {
	case FieldStartDate, FieldExpectedEndDate, FieldReturnedAt:
	default:
		return fmt.Errorf("rent predicate: unknown time field %q", p.Time.Field)
	}
	if p.Time.From.IsZero() && p.Time.Until.IsZero() {
		return fmt.Errorf("rent predicate: time filter needs at least one bound")
	}
	if p.Unreturned && p.Time.Field == FieldReturnedAt {
		return fmt.Errorf("rent predicate: cannot require no return while filtering on returned_at")
	}
	return nil
}

// Matches evaluates the predicate against a rent held in memory, with the
// same semantics the SQL store applies.
func (p RentPredicate) Matches(r *domain.Rent) bool {
	if r.IsDeleted || r.Status != p.Status {
		return false
	}
	if p.Unreturned && r.ReturnedAt.Valid {
		return false
	}

	var value time.Time
	switch p.Time.Field {
	case FieldStartDate:
		value = r.StartDate
	case FieldExpectedEndDate:
		if !r.ExpectedEndDate.Valid {
			return false
		}
		value = r.ExpectedEndDate.Time
	case FieldReturnedAt:
		if !r.ReturnedAt.Valid {
			return false
		}
		value = r.ReturnedAt.Time
	default:
		return false
	}

	if !p.Time.From.IsZero() && value.Before(p.Time.From) {
		return false
	}
	if !p.Time.Until.IsZero() {
		if p.Time.UntilInclusive && value.After(p.Time.Until) {
			return false
		}
		if !p.Time.UntilInclusive && !value.Before(p.Time.Until) {
			return false
		}
	}
	return true
}
