package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/i18n"
	"fleetrent-backend/internal/service"
)

// checkInsuranceExpiry alerts about active vehicles whose insurance expires
// between now and the end of the expiry window. Already expired insurance is
// not reported here.
func (jr *JobRunner) checkInsuranceExpiry(ctx context.Context, log *slog.Logger) (Summary, error) {
	var sum Summary
	now := jr.now().UTC()
	cfg := jr.config.Notifications
	owners := newOwnerLookup(jr.repos.Orgs)
	repeat := cfg.ExpiryRepeatPolicy()

	until := now.Add(time.Duration(cfg.ExpiryWindowDays) * day)
	vehicles, err := jr.repos.Vehicles.FindByInsuranceExpiryWindow(ctx, now, until, true)
	if err != nil {
		return sum, fmt.Errorf("failed to find vehicles with expiring insurance: %w", err)
	}
	sum.Matched = len(vehicles)
	log.Info("Found vehicles with expiring insurance", "count", len(vehicles), "window_days", cfg.ExpiryWindowDays)

	for i := range vehicles {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		v := &vehicles[i]
		if !v.InsuranceExpiryDate.Valid {
			continue
		}

		owner := jr.resolveOwner(ctx, log, &sum, owners, v.OrgID, "car_id", v.ID)
		if owner == nil {
			continue
		}

		days := v.DaysUntilInsuranceExpiry(now)
		tier := domain.ClassifyInsuranceExpiry(days, cfg.ExpiryUrgentDays, cfg.ExpiryHighDays)
		expiry := v.InsuranceExpiryDate.Time.UTC()

		jr.notify(ctx, log, &sum, service.NotificationRequest{
			Owner:    owner,
			Type:     domain.NotificationCarInsuranceExpiring,
			Variant:  tier.Name,
			Category: domain.CategoryVehicle,
			Priority: tier.Priority,
			Level:    tier.Level,
			Vars: map[string]any{
				"car":        v.Label(),
				"expiryDate": expiry,
				"provider":   v.InsuranceProvider.ValueOrZero(),
				i18n.VarDays: days,
			},
			ActionURL: jr.carURL(v.ID),
			Metadata: map[string]any{
				"car_id":            v.ID,
				"days_until_expiry": days,
				"tier":              tier.Name,
				"expiry_date":       expiry.Format(time.RFC3339),
			},
			// Renewing the insurance changes the date and re-arms the alert.
			DedupeKey: fmt.Sprintf("insurance:%s:%s:%s", v.ID, tier.Name, expiry.Format("2006-01-02")),
			Repeat:    repeat,
		}, "car_id", v.ID, "days_until_expiry", days, "tier", tier.Name)
	}

	return sum, nil
}
