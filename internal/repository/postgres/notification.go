package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type)

	metadata := []byte("{}")
	if n.Metadata != nil {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal metadata")
			return fmt.Errorf("notificationRepository.Create: %w", err)
		}
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	query, args, err := psql.Insert("notifications").
		Columns("id", "user_id", "org_id", "category", "type", "priority", "level", "title", "message",
			"is_read", "is_dismissed", "action_url", "action_label", "metadata", "expires_at").
		Values(n.ID, n.UserID, n.OrgID, string(n.Category), string(n.Type), string(n.Priority), string(n.Level), n.Title, n.Message,
			n.IsRead, n.IsDismissed, n.ActionURL, n.ActionLabel, string(metadata), n.ExpiresAt).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err)
		return fmt.Errorf("notificationRepository.Create: %w", err)
	}

	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&n.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID, "sqlstate", SQLState(err))
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
		return fmt.Errorf("notificationRepository.Create: %w", err)
	}

	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) ExistsByDedupeKey(ctx context.Context, userID, key string, since time.Time) (bool, error) {
	sb := psql.Select("1").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		Where("metadata->>'"+domain.MetadataDedupeKey+"' = ?", key)
	if !since.IsZero() {
		sb = sb.Where(sq.GtOrEq{"created_at": since})
	}

	query, args, err := sb.Limit(1).Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("notificationRepository.ExistsByDedupeKey: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("notificationRepository.ExistsByDedupeKey: %w", err)
	}
	return exists, nil
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("notifications").
		Where(sq.Eq{"is_read": true}).
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("notificationRepository.DeleteOlderThan: %w", err)
	}

	logger.DatabaseCall("DELETE", "notifications", "cutoff", cutoff)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "sqlstate", SQLState(err))
		return 0, fmt.Errorf("notificationRepository.DeleteOlderThan: %w", err)
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err)
	if err != nil {
		return 0, fmt.Errorf("notificationRepository.DeleteOlderThan: %w", err)
	}
	return rows, nil
}
