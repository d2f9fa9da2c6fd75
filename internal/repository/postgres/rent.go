package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
)

var rentColumns = []string{
	"r.id", "r.org_id", "r.car_id", "r.customer_id", "r.year_sequence", "r.year",
	"r.start_date", "r.expected_end_date", "r.returned_at", "r.status",
	"r.deposit", "r.total_price", "r.paid_amount", "r.is_fully_paid", "r.is_deleted",
	"r.created_at", "r.updated_at",
}

var rentJoinColumns = []string{
	"COALESCE(c.make, '') AS car_make",
	"COALESCE(c.model, '') AS car_model",
	"COALESCE(c.plate_number, '') AS car_plate_number",
	"COALESCE(cu.first_name, '') AS customer_first_name",
	"COALESCE(cu.last_name, '') AS customer_last_name",
	"cu.phone AS customer_phone",
	"cu.email AS customer_email",
}

func rentDetailColumns() []string {
	cols := make([]string, 0, len(rentColumns)+len(rentJoinColumns))
	cols = append(cols, rentColumns...)
	return append(cols, rentJoinColumns...)
}

const rentJoins = "LEFT JOIN cars c ON c.id = r.car_id LEFT JOIN customers cu ON cu.id = r.customer_id"

type rentRepository struct {
	db *sqlx.DB
}

func NewRentRepository(db *sqlx.DB) repository.RentRepository {
	return &rentRepository{db: db}
}

// predicateCondition renders a RentPredicate against the rents table aliased as r.
func predicateCondition(p repository.RentPredicate) (sq.And, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	col := "r." + string(p.Time.Field)
	cond := sq.And{
		sq.Eq{"r.status": string(p.Status)},
		sq.Eq{"r.is_deleted": false},
	}
	if p.Time.Field != repository.FieldStartDate {
		cond = append(cond, sq.NotEq{col: nil})
	}
	if p.Unreturned {
		cond = append(cond, sq.Eq{"r.returned_at": nil})
	}
	if !p.Time.From.IsZero() {
		cond = append(cond, sq.GtOrEq{col: p.Time.From})
	}
	if !p.Time.Until.IsZero() {
		if p.Time.UntilInclusive {
			cond = append(cond, sq.LtOrEq{col: p.Time.Until})
		} else {
			cond = append(cond, sq.Lt{col: p.Time.Until})
		}
	}
	return cond, nil
}

func (r *rentRepository) FindByPredicate(ctx context.Context, p repository.RentPredicate) ([]domain.RentDetails, error) {
	cond, err := predicateCondition(p)
	if err != nil {
		return nil, fmt.Errorf("rentRepository.FindByPredicate: %w", err)
	}

	query, args, err := psql.Select(rentDetailColumns()...).
		From("rents r").
		JoinClause(rentJoins).
		Where(cond).
		OrderBy("r." + string(p.Time.Field) + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("rentRepository.FindByPredicate: %w", err)
	}

	logger.DatabaseCall("SELECT", "rents", "status", p.Status, "field", p.Time.Field)
	var rents []domain.RentDetails
	err = r.db.SelectContext(ctx, &rents, query, args...)
	logger.DatabaseResult("SELECT", int64(len(rents)), err, "sqlstate", SQLState(err))
	if err != nil {
		return nil, fmt.Errorf("rentRepository.FindByPredicate: %w", err)
	}
	normalizeRents(rents)
	return rents, nil
}

func (r *rentRepository) BulkUpdateStatus(ctx context.Context, p repository.RentPredicate, status domain.RentStatus) ([]domain.RentDetails, error) {
	if !p.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("rentRepository.BulkUpdateStatus: transition %s -> %s is not allowed", p.Status, status)
	}
	cond, err := predicateCondition(p)
	if err != nil {
		return nil, fmt.Errorf("rentRepository.BulkUpdateStatus: %w", err)
	}

	update, args, err := psql.Update("rents AS r").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(cond).
		Suffix("RETURNING r.*").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("rentRepository.BulkUpdateStatus: %w", err)
	}

	// The update and the join run as one statement, so the returned rows are
	// exactly the rows this call changed.
	query := fmt.Sprintf("WITH updated AS (%s) SELECT %s FROM updated r %s",
		update, strings.Join(rentDetailColumns(), ", "), rentJoins)

	logger.DatabaseCall("UPDATE", "rents", "from", p.Status, "to", status)
	var rents []domain.RentDetails
	err = r.db.SelectContext(ctx, &rents, query, args...)
	logger.DatabaseResult("UPDATE", int64(len(rents)), err, "sqlstate", SQLState(err))
	if err != nil {
		return nil, fmt.Errorf("rentRepository.BulkUpdateStatus: %w", err)
	}
	normalizeRents(rents)
	return rents, nil
}

func (r *rentRepository) ListActiveAt(ctx context.Context, carID string, at time.Time) ([]domain.Rent, error) {
	query, args, err := psql.Select(rentColumns...).
		From("rents r").
		Where(sq.Eq{"r.car_id": carID}).
		Where(sq.Eq{"r.status": string(domain.RentStatusActive)}).
		Where(sq.Eq{"r.is_deleted": false}).
		Where(sq.LtOrEq{"r.start_date": at}).
		Where(sq.Or{sq.Eq{"r.returned_at": nil}, sq.Gt{"r.returned_at": at}}).
		OrderBy("r.start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("rentRepository.ListActiveAt: %w", err)
	}

	logger.DatabaseCall("SELECT", "rents", "car_id", carID, "at", at)
	var rents []domain.Rent
	err = r.db.SelectContext(ctx, &rents, query, args...)
	logger.DatabaseResult("SELECT", int64(len(rents)), err, "sqlstate", SQLState(err))
	if err != nil {
		return nil, fmt.Errorf("rentRepository.ListActiveAt: %w", err)
	}
	for i := range rents {
		normalizeRent(&rents[i])
	}
	return rents, nil
}

func normalizeRents(rents []domain.RentDetails) {
	for i := range rents {
		normalizeRent(&rents[i].Rent)
	}
}

func normalizeRent(rt *domain.Rent) {
	rt.StartDate = rt.StartDate.UTC()
	if rt.ExpectedEndDate.Valid {
		rt.ExpectedEndDate.Time = rt.ExpectedEndDate.Time.UTC()
	}
	if rt.ReturnedAt.Valid {
		rt.ReturnedAt.Time = rt.ReturnedAt.Time.UTC()
	}
}
