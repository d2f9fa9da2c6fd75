package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
)

type organizationRepository struct {
	db *sqlx.DB
}

func NewOrganizationRepository(db *sqlx.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetOwner(ctx context.Context, orgID string) (*domain.Owner, error) {
	query, args, err := psql.Select(
		"o.id AS org_id",
		"o.name AS org_name",
		"u.id AS user_id",
		"COALESCE(u.name, '') AS name",
		"COALESCE(u.email, '') AS email",
		"COALESCE(u.locale, '') AS locale",
	).
		From("organizations o").
		Join("users u ON u.id = o.owner_id").
		Where(sq.Eq{"o.id": orgID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("organizationRepository.GetOwner: %w", err)
	}

	logger.DatabaseCall("SELECT", "organizations", "org_id", orgID)
	owner := &domain.Owner{}
	err = r.db.GetContext(ctx, owner, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("SELECT", 0, nil)
		return nil, repository.ErrOwnerNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "sqlstate", SQLState(err))
		return nil, fmt.Errorf("organizationRepository.GetOwner: %w", err)
	}
	logger.DatabaseResult("SELECT", 1, nil)
	return owner, nil
}
