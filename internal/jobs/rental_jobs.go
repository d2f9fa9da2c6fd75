package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/i18n"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/service"
)

const day = 24 * time.Hour

// transitionRents runs the two conditional bulk updates in order. The update
// predicate is the only guard against reprocessing: a row that changed no
// longer matches, so a second run in a row changes nothing.
func (jr *JobRunner) transitionRents(ctx context.Context, log *slog.Logger) (Summary, error) {
	var sum Summary
	now := jr.now().UTC()
	owners := newOwnerLookup(jr.repos.Orgs)

	var errs []error

	started, err := jr.repos.Rents.BulkUpdateStatus(ctx, repository.StartedBy(now), domain.RentStatusActive)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to activate started rents: %w", err))
	} else {
		log.Info("Activated started rents", "count", len(started))
		sum.Matched += len(started)
		for i := range started {
			rent := &started[i]
			jr.notifyTransition(ctx, log, &sum, owners, rent, domain.NotificationRentStarted, domain.LevelInfo)
			if jr.config.Notifications.OverlapCheckEnabled() {
				jr.checkOverlap(ctx, log, &sum, owners, rent, now)
			}
		}
	}

	// A rent activated above with a return already recorded completes in
	// this same run.
	completed, err := jr.repos.Rents.BulkUpdateStatus(ctx, repository.ReturnedBy(now), domain.RentStatusCompleted)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to complete returned rents: %w", err))
	} else {
		log.Info("Completed returned rents", "count", len(completed))
		sum.Matched += len(completed)
		for i := range completed {
			jr.notifyTransition(ctx, log, &sum, owners, &completed[i], domain.NotificationRentCompleted, domain.LevelSuccess)
		}
	}

	return sum, errors.Join(errs...)
}

func (jr *JobRunner) notifyTransition(
	ctx context.Context,
	log *slog.Logger,
	sum *Summary,
	owners *ownerLookup,
	rent *domain.RentDetails,
	eventType domain.NotificationType,
	level domain.NotificationLevel,
) {
	owner := jr.resolveOwner(ctx, log, sum, owners, rent.OrgID, "rent_id", rent.ID)
	if owner == nil {
		return
	}

	jr.notify(ctx, log, sum, service.NotificationRequest{
		Owner:     owner,
		Type:      eventType,
		Category:  domain.CategoryRental,
		Priority:  domain.PriorityMedium,
		Level:     level,
		Vars:      rentVars(rent),
		ActionURL: jr.rentURL(rent.ID),
		Metadata:  rentMetadata(rent),
		Repeat:    domain.RepeatAlways,
	}, "rent_id", rent.ID)
}

// checkOverlap reports other active rents holding the same car at now. It
// only warns; the transition that just happened stays.
func (jr *JobRunner) checkOverlap(ctx context.Context, log *slog.Logger, sum *Summary, owners *ownerLookup, rent *domain.RentDetails, now time.Time) {
	active, err := jr.repos.Rents.ListActiveAt(ctx, rent.CarID, now)
	if err != nil {
		log.Error("Failed to check vehicle availability", "rent_id", rent.ID, "car_id", rent.CarID, "error", err)
		return
	}

	var others []string
	for _, r := range active {
		if r.ID != rent.ID {
			others = append(others, r.ID)
		}
	}
	if len(others) == 0 {
		return
	}

	log.Warn("Vehicle has overlapping active rents",
		"rent_id", rent.ID, "car_id", rent.CarID, "overlapping_rent_ids", others)

	owner := jr.resolveOwner(ctx, log, sum, owners, rent.OrgID, "rent_id", rent.ID)
	if owner == nil {
		return
	}

	vars := rentVars(rent)
	vars["overlapCount"] = len(others)
	metadata := rentMetadata(rent)
	metadata["car_id"] = rent.CarID
	metadata["overlapping_rent_ids"] = others

	jr.notify(ctx, log, sum, service.NotificationRequest{
		Owner:     owner,
		Type:      domain.NotificationVehicleDoubleBooked,
		Category:  domain.CategoryVehicle,
		Priority:  domain.PriorityHigh,
		Level:     domain.LevelWarning,
		Vars:      vars,
		ActionURL: jr.rentURL(rent.ID),
		Metadata:  metadata,
		DedupeKey: "double-booked:" + rent.ID,
		Repeat:    domain.RepeatOnce,
	}, "rent_id", rent.ID)
}

// detectOverdue never changes status: an overdue rent stays active until it
// is returned. How often the same rent is re-alerted is the overdue repeat
// policy.
func (jr *JobRunner) detectOverdue(ctx context.Context, log *slog.Logger) (Summary, error) {
	var sum Summary
	now := jr.now().UTC()
	owners := newOwnerLookup(jr.repos.Orgs)
	repeat := jr.config.Notifications.OverdueRepeatPolicy()

	rents, err := jr.repos.Rents.FindByPredicate(ctx, repository.DueBy(now))
	if err != nil {
		return sum, fmt.Errorf("failed to find overdue rents: %w", err)
	}
	sum.Matched = len(rents)
	log.Info("Found overdue rents", "count", len(rents))

	for i := range rents {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rent := &rents[i]

		owner := jr.resolveOwner(ctx, log, &sum, owners, rent.OrgID, "rent_id", rent.ID)
		if owner == nil {
			continue
		}

		days := rent.DaysOverdue(now)
		vars := rentVars(rent)
		vars[i18n.VarDays] = days
		metadata := rentMetadata(rent)
		metadata["days_overdue"] = days

		jr.notify(ctx, log, &sum, service.NotificationRequest{
			Owner:     owner,
			Type:      domain.NotificationRentOverdue,
			Category:  domain.CategoryRental,
			Priority:  domain.PriorityHigh,
			Level:     domain.LevelError,
			Vars:      vars,
			ActionURL: jr.rentURL(rent.ID),
			Metadata:  metadata,
			DedupeKey: "overdue:" + rent.ID,
			Repeat:    repeat,
		}, "rent_id", rent.ID, "days_overdue", days)
	}

	return sum, nil
}

// sendReturnReminders checks one bucket per horizon h: expected end dates in
// [now+h days, now+h+1 days). Buckets of distinct horizons never overlap, so
// a rent is picked by at most one horizon per run.
func (jr *JobRunner) sendReturnReminders(ctx context.Context, log *slog.Logger) (Summary, error) {
	var sum Summary
	now := jr.now().UTC()
	owners := newOwnerLookup(jr.repos.Orgs)
	repeat := jr.config.Notifications.ReminderRepeatPolicy()

	var errs []error
	for _, h := range jr.config.Notifications.ReminderHorizonsDays {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		from := now.Add(time.Duration(h) * day)
		until := from.Add(day)

		rents, err := jr.repos.Rents.FindByPredicate(ctx, repository.DueWithin(from, until))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to find rents due in %d days: %w", h, err))
			continue
		}
		sum.Matched += len(rents)
		log.Info("Found rents due back", "horizon_days", h, "count", len(rents))

		priority, variant := domain.PriorityMedium, ""
		if h == 1 {
			priority, variant = domain.PriorityHigh, i18n.VariantTomorrow
		}

		for i := range rents {
			rent := &rents[i]

			owner := jr.resolveOwner(ctx, log, &sum, owners, rent.OrgID, "rent_id", rent.ID)
			if owner == nil {
				continue
			}

			vars := rentVars(rent)
			vars[i18n.VarDays] = h
			metadata := rentMetadata(rent)
			metadata["horizon_days"] = h

			jr.notify(ctx, log, &sum, service.NotificationRequest{
				Owner:     owner,
				Type:      domain.NotificationRentReturnReminder,
				Variant:   variant,
				Category:  domain.CategoryRental,
				Priority:  priority,
				Level:     domain.LevelWarning,
				Vars:      vars,
				ActionURL: jr.rentURL(rent.ID),
				Metadata:  metadata,
				DedupeKey: fmt.Sprintf("return-reminder:%s:%d", rent.ID, h),
				Repeat:    repeat,
			}, "rent_id", rent.ID, "horizon_days", h)
		}
	}

	return sum, errors.Join(errs...)
}

func rentVars(r *domain.RentDetails) map[string]any {
	vars := map[string]any{
		"contract":      r.ContractNumber(),
		"car":           r.CarLabel(),
		"customer":      r.CustomerName(),
		"customerPhone": r.CustomerPhone.ValueOrZero(),
		"customerEmail": r.CustomerEmail.ValueOrZero(),
		"startDate":     r.StartDate,
		"balance":       r.OutstandingBalance(),
	}
	if vars["customerPhone"] == "" {
		vars["customerPhone"] = "-"
	}
	if vars["customerEmail"] == "" {
		vars["customerEmail"] = "-"
	}
	if r.ExpectedEndDate.Valid {
		vars["expectedEndDate"] = r.ExpectedEndDate.Time
	}
	if r.ReturnedAt.Valid {
		vars["returnedAt"] = r.ReturnedAt.Time
	}
	return vars
}

func rentMetadata(r *domain.RentDetails) map[string]any {
	return map[string]any{
		"rent_id":         r.ID,
		"contract_number": r.ContractNumber(),
		"car_id":          r.CarID,
		"customer_id":     r.CustomerID,
	}
}
