package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

type RentStatus string

const (
	RentStatusReserved  RentStatus = "reserved"
	RentStatusActive    RentStatus = "active"
	RentStatusCompleted RentStatus = "completed"
	RentStatusCanceled  RentStatus = "canceled"
)

// IsTerminal reports whether the scheduler can never move a rent out of s.
func (s RentStatus) IsTerminal() bool {
	return s == RentStatusCompleted || s == RentStatusCanceled
}

// CanTransitionTo reports whether the scheduler itself may move a rent from s
// to next. Cancellation happens outside the scheduler and is never allowed here.
func (s RentStatus) CanTransitionTo(next RentStatus) bool {
	switch s {
	case RentStatusReserved:
		return next == RentStatusActive
	case RentStatusActive:
		return next == RentStatusCompleted
	}
	return false
}

type Rent struct {
	ID              string              `json:"id" db:"id"`
	OrgID           string              `json:"org_id" db:"org_id"`
	CarID           string              `json:"car_id" db:"car_id"`
	CustomerID      string              `json:"customer_id" db:"customer_id"`
	YearSequence    int                 `json:"year_sequence" db:"year_sequence"`
	Year            int                 `json:"year" db:"year"`
	StartDate       time.Time           `json:"start_date" db:"start_date"`
	ExpectedEndDate null.Time           `json:"expected_end_date" db:"expected_end_date"` // invalid for open-ended contracts
	ReturnedAt      null.Time           `json:"returned_at" db:"returned_at"`
	Status          RentStatus          `json:"status" db:"status"`
	Deposit         decimal.Decimal     `json:"deposit" db:"deposit"`
	TotalPrice      decimal.NullDecimal `json:"total_price" db:"total_price"`
	PaidAmount      decimal.Decimal     `json:"paid_amount" db:"paid_amount"`
	IsFullyPaid     bool                `json:"is_fully_paid" db:"is_fully_paid"`
	IsDeleted       bool                `json:"is_deleted" db:"is_deleted"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// ContractNumber renders the per-organization, per-year contract identifier,
// e.g. "0001/2025".
func (r *Rent) ContractNumber() string {
	return fmt.Sprintf("%04d/%d", r.YearSequence, r.Year)
}

func (r *Rent) IsOpenEnded() bool {
	return !r.ExpectedEndDate.Valid
}

// OutstandingBalance is the unpaid part of the total price, never negative.
func (r *Rent) OutstandingBalance() decimal.Decimal {
	if r.IsFullyPaid || !r.TotalPrice.Valid {
		return decimal.Zero
	}
	balance := r.TotalPrice.Decimal.Sub(r.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// DueStatus is the status time alone says the rent should carry at now.
// Canceled and deleted rents keep their status.
func (r *Rent) DueStatus(now time.Time) RentStatus {
	status := r.Status
	if r.IsDeleted {
		return status
	}
	if status == RentStatusReserved && !r.StartDate.After(now) {
		status = RentStatusActive
	}
	if status == RentStatusActive && r.ReturnedAt.Valid && !r.ReturnedAt.Time.After(now) {
		status = RentStatusCompleted
	}
	return status
}

// DaysOverdue counts whole days, rounded up, since the expected end date.
// A rent that is due right now counts as one day overdue.
func (r *Rent) DaysOverdue(now time.Time) int {
	if !r.ExpectedEndDate.Valid || r.ExpectedEndDate.Time.After(now) {
		return 0
	}
	days := CeilDays(now.Sub(r.ExpectedEndDate.Time))
	if days < 1 {
		return 1
	}
	return days
}

// RentDetails is a rent joined with the car and customer fields notifications need.
type RentDetails struct {
	Rent
	CarMake           string      `json:"car_make" db:"car_make"`
	CarModel          string      `json:"car_model" db:"car_model"`
	CarPlateNumber    string      `json:"car_plate_number" db:"car_plate_number"`
	CustomerFirstName string      `json:"customer_first_name" db:"customer_first_name"`
	CustomerLastName  string      `json:"customer_last_name" db:"customer_last_name"`
	CustomerPhone     null.String `json:"customer_phone" db:"customer_phone"`
	CustomerEmail     null.String `json:"customer_email" db:"customer_email"`
}

func (d *RentDetails) CarLabel() string {
	label := strings.TrimSpace(d.CarMake + " " + d.CarModel)
	if d.CarPlateNumber != "" {
		label += " (" + d.CarPlateNumber + ")"
	}
	return label
}

func (d *RentDetails) CustomerName() string {
	return strings.TrimSpace(d.CustomerFirstName + " " + d.CustomerLastName)
}

// CeilDays converts a duration to whole days, rounding up.
func CeilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}
