package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
)

type vehicleRepository struct {
	db *sqlx.DB
}

func NewVehicleRepository(db *sqlx.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) FindByInsuranceExpiryWindow(ctx context.Context, from, to time.Time, activeOnly bool) ([]domain.Vehicle, error) {
	sb := psql.Select("id", "org_id", "make", "model", "plate_number", "status", "insurance_provider", "insurance_expiry_date").
		From("cars").
		Where(sq.Eq{"is_deleted": false}).
		Where(sq.GtOrEq{"insurance_expiry_date": from}).
		Where(sq.LtOrEq{"insurance_expiry_date": to})
	if activeOnly {
		sb = sb.Where(sq.Eq{"status": string(domain.VehicleStatusActive)})
	}

	query, args, err := sb.OrderBy("insurance_expiry_date ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("vehicleRepository.FindByInsuranceExpiryWindow: %w", err)
	}

	logger.DatabaseCall("SELECT", "cars", "from", from, "to", to, "active_only", activeOnly)
	var vehicles []domain.Vehicle
	err = r.db.SelectContext(ctx, &vehicles, query, args...)
	logger.DatabaseResult("SELECT", int64(len(vehicles)), err, "sqlstate", SQLState(err))
	if err != nil {
		return nil, fmt.Errorf("vehicleRepository.FindByInsuranceExpiryWindow: %w", err)
	}
	for i := range vehicles {
		if vehicles[i].InsuranceExpiryDate.Valid {
			vehicles[i].InsuranceExpiryDate.Time = vehicles[i].InsuranceExpiryDate.Time.UTC()
		}
	}
	return vehicles, nil
}
