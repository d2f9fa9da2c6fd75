package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// sweepNotifications applies the retention window. The store decides which
// notifications are eligible; it only removes read ones.
func (jr *JobRunner) sweepNotifications(ctx context.Context, log *slog.Logger) (Summary, error) {
	var sum Summary
	retention := jr.config.Notifications.RetentionDays
	cutoff := jr.now().UTC().Add(-time.Duration(retention) * day)

	deleted, err := jr.repos.Notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return sum, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	sum.Deleted = deleted

	log.Info("Deleted old notifications", "count", deleted, "retention_days", retention, "cutoff", cutoff)
	return sum, nil
}
