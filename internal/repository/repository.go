package repository

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrOwnerNotFound = errors.New("organization owner not found")
)

// RentRepository is the rental store. Every query it runs excludes
// soft-deleted rents.
type RentRepository interface {
	FindByPredicate(ctx context.Context, p RentPredicate) ([]domain.RentDetails, error)
	// BulkUpdateStatus moves every rent matching p to status in one conditional
	// update and returns the rows it changed.
	BulkUpdateStatus(ctx context.Context, p RentPredicate, status domain.RentStatus) ([]domain.RentDetails, error)
	// ListActiveAt returns active rents on the car whose [start_date, returned_at)
	// window contains at.
	ListActiveAt(ctx context.Context, carID string, at time.Time) ([]domain.Rent, error)
}

type VehicleRepository interface {
	FindByInsuranceExpiryWindow(ctx context.Context, from, to time.Time, activeOnly bool) ([]domain.Vehicle, error)
}

type OrganizationRepository interface {
	GetOwner(ctx context.Context, orgID string) (*domain.Owner, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ExistsByDedupeKey reports whether userID already received a notification
	// carrying key, created at or after since. A zero since searches all time.
	ExistsByDedupeKey(ctx context.Context, userID, key string, since time.Time) (bool, error)
	// DeleteOlderThan removes read notifications created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
