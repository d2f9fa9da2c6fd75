package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fleetrent-backend/internal/repository"
)

// psql builds every statement with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	db *sqlx.DB
	repository.RentRepository
	repository.VehicleRepository
	repository.OrganizationRepository
	repository.NotificationRepository
}

// NewStore wires every repository onto one connection pool. driverName is
// the database/sql driver the pool was opened with ("postgres" or "pgx").
func NewStore(db *sql.DB, driverName string) *Store {
	xdb := sqlx.NewDb(db, driverName)
	return &Store{
		db:                     xdb,
		RentRepository:         NewRentRepository(xdb),
		VehicleRepository:      NewVehicleRepository(xdb),
		OrganizationRepository: NewOrganizationRepository(xdb),
		NotificationRepository: NewNotificationRepository(xdb),
	}
}

// Open opens and pings a connection pool.
func Open(driverName, dsn string, maxOpenConns int) (*sql.DB, error) {
	switch driverName {
	case "postgres", "pgx":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// SQLState extracts the SQLSTATE code from a driver error, or "" when the
// error did not come from the server.
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
