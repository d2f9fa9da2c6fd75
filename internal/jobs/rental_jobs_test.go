package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
)

func run(t *testing.T, h *harness, fn jobFunc) Summary {
	t.Helper()
	sum, err := fn(context.Background(), logger.Get())
	require.NoError(t, err)
	return sum
}

func TestTransitionRents_StartsReservedRent(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		rent("r1", domain.RentStatusReserved, testNow.Add(-time.Hour)),
	}

	sum := run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusActive, h.rents.status("r1"))
	started := h.notes.ofType(domain.NotificationRentStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "owner-1", started[0].UserID)
	assert.Equal(t, "org-1", started[0].OrgID.String)
	assert.Equal(t, domain.PriorityMedium, started[0].Priority)
	assert.Equal(t, domain.LevelInfo, started[0].Level)
	assert.Equal(t, "https://app.fleetrent.test/rents/r1", started[0].ActionURL.String)
	assert.Contains(t, started[0].Message, "0001/2025")
	assert.Equal(t, 1, sum.Notified)
	require.Len(t, h.email.sent, 1)
	assert.Equal(t, []string{"sam@rentacar.test"}, h.email.sent[0].Recipients)
}

func TestTransitionRents_CompletesReturnedRent(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withReturn(rent("r2", domain.RentStatusActive, testNow.Add(-72*time.Hour)), testNow.Add(-time.Minute)),
	}

	run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusCompleted, h.rents.status("r2"))
	completed := h.notes.ofType(domain.NotificationRentCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.LevelSuccess, completed[0].Level)
	assert.Empty(t, h.notes.ofType(domain.NotificationRentStarted))
}

func TestTransitionRents_TimeGating(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		rent("future", domain.RentStatusReserved, testNow.Add(time.Minute)),
		rent("exact", domain.RentStatusReserved, testNow),
		withReturn(rent("later-return", domain.RentStatusActive, testNow.Add(-time.Hour)), testNow.Add(time.Hour)),
		rent("canceled", domain.RentStatusCanceled, testNow.Add(-time.Hour)),
	}
	deleted := rent("deleted", domain.RentStatusReserved, testNow.Add(-time.Hour))
	deleted.IsDeleted = true
	h.rents.rents = append(h.rents.rents, deleted)

	run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusReserved, h.rents.status("future"))
	assert.Equal(t, domain.RentStatusActive, h.rents.status("exact"))
	assert.Equal(t, domain.RentStatusActive, h.rents.status("later-return"))
	assert.Equal(t, domain.RentStatusCanceled, h.rents.status("canceled"))
	assert.Equal(t, domain.RentStatusReserved, h.rents.status("deleted"))
}

func TestTransitionRents_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		rent("r1", domain.RentStatusReserved, testNow.Add(-time.Hour)),
		withReturn(rent("r2", domain.RentStatusActive, testNow.Add(-48*time.Hour)), testNow.Add(-time.Minute)),
	}

	first := run(t, h, h.runner.transitionRents)
	second := run(t, h, h.runner.transitionRents)

	assert.Equal(t, 2, first.Matched)
	assert.Equal(t, 0, second.Matched)
	assert.Equal(t, domain.RentStatusActive, h.rents.status("r1"))
	assert.Equal(t, domain.RentStatusCompleted, h.rents.status("r2"))
	assert.Len(t, h.notes.ofType(domain.NotificationRentStarted), 1)
	assert.Len(t, h.notes.ofType(domain.NotificationRentCompleted), 1)
}

func TestTransitionRents_StartAndReturnInOneRun(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withReturn(rent("r1", domain.RentStatusReserved, testNow.Add(-2*time.Hour)), testNow.Add(-time.Hour)),
	}

	run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusCompleted, h.rents.status("r1"))
	assert.Len(t, h.notes.ofType(domain.NotificationRentStarted), 1)
	assert.Len(t, h.notes.ofType(domain.NotificationRentCompleted), 1)
}

func TestTransitionRents_OwnerNotFoundSkipsRowOnly(t *testing.T) {
	h := newHarness(t)
	orphan := rent("orphan", domain.RentStatusReserved, testNow.Add(-time.Hour))
	orphan.OrgID = "org-gone"
	h.rents.rents = []domain.RentDetails{
		orphan,
		rent("r1", domain.RentStatusReserved, testNow.Add(-time.Hour)),
	}

	sum := run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusActive, h.rents.status("orphan"))
	assert.Equal(t, domain.RentStatusActive, h.rents.status("r1"))
	assert.Equal(t, 1, sum.Skipped)
	assert.Len(t, h.notes.ofType(domain.NotificationRentStarted), 1)
}

func TestTransitionRents_EmailFailureDoesNotRevert(t *testing.T) {
	h := newHarness(t)
	h.email.err = errors.New("smtp unavailable")
	h.rents.rents = []domain.RentDetails{
		rent("r1", domain.RentStatusReserved, testNow.Add(-time.Hour)),
	}

	sum := run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusActive, h.rents.status("r1"))
	assert.Len(t, h.notes.ofType(domain.NotificationRentStarted), 1)
	assert.Equal(t, 1, sum.Notified)
	assert.Equal(t, 0, sum.Failed)
}

func TestTransitionRents_StoreFailureStillRunsSecondStep(t *testing.T) {
	h := newHarness(t)
	h.rents.updateErr = errors.New("connection refused")

	_, err := h.runner.transitionRents(context.Background(), logger.Get())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to activate started rents")
	assert.Contains(t, err.Error(), "failed to complete returned rents")
}

func TestTransitionRents_DoubleBooking(t *testing.T) {
	h := newHarness(t)
	holder := rent("holder", domain.RentStatusActive, testNow.Add(-24*time.Hour))
	incoming := rent("incoming", domain.RentStatusReserved, testNow.Add(-time.Minute))
	incoming.CarID = holder.CarID
	h.rents.rents = []domain.RentDetails{holder, incoming}

	run(t, h, h.runner.transitionRents)

	assert.Equal(t, domain.RentStatusActive, h.rents.status("incoming"))
	alerts := h.notes.ofType(domain.NotificationVehicleDoubleBooked)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.PriorityHigh, alerts[0].Priority)
	assert.Equal(t, domain.LevelWarning, alerts[0].Level)
	assert.Equal(t, []string{"holder"}, alerts[0].Metadata["overlapping_rent_ids"])
	// Started email only; double booking has no email copy.
	assert.Len(t, h.email.sent, 1)
}

func TestTransitionRents_DoubleBookingCheckDisabled(t *testing.T) {
	h := newHarness(t)
	disabled := false
	h.cfg.Notifications.OverlapCheck = &disabled
	h.build()

	holder := rent("holder", domain.RentStatusActive, testNow.Add(-24*time.Hour))
	incoming := rent("incoming", domain.RentStatusReserved, testNow.Add(-time.Minute))
	incoming.CarID = holder.CarID
	h.rents.rents = []domain.RentDetails{holder, incoming}

	run(t, h, h.runner.transitionRents)

	assert.Empty(t, h.notes.ofType(domain.NotificationVehicleDoubleBooked))
}

func TestDetectOverdue(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withEnd(rent("late", domain.RentStatusActive, testNow.Add(-10*24*time.Hour)), testNow.Add(-5*24*time.Hour)),
		withEnd(rent("on-time", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(time.Hour)),
		rent("open-ended", domain.RentStatusActive, testNow.Add(-30*24*time.Hour)),
	}

	sum := run(t, h, h.runner.detectOverdue)

	assert.Equal(t, 1, sum.Matched)
	overdue := h.notes.ofType(domain.NotificationRentOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, domain.PriorityHigh, overdue[0].Priority)
	assert.Equal(t, domain.LevelError, overdue[0].Level)
	assert.Equal(t, 5, overdue[0].Metadata["days_overdue"])
	assert.Contains(t, overdue[0].Message, "5 days overdue")
	assert.Equal(t, domain.RentStatusActive, h.rents.status("late"))

	require.Len(t, h.email.sent, 1)
	assert.Contains(t, h.email.sent[0].Text, "+1 555 0100")
	assert.Contains(t, h.email.sent[0].Text, "jane@example.com")
	assert.Contains(t, h.email.sent[0].Text, "Outstanding balance: 200.00")
}

func TestDetectOverdue_SkipsRentWithRecordedReturn(t *testing.T) {
	h := newHarness(t)
	// Returned a minute ago; the transition job has not completed it yet.
	h.rents.rents = []domain.RentDetails{
		withReturn(withEnd(rent("back", domain.RentStatusActive, testNow.Add(-10*24*time.Hour)), testNow.Add(-5*24*time.Hour)), testNow.Add(-time.Minute)),
	}

	sum := run(t, h, h.runner.detectOverdue)

	assert.Equal(t, 0, sum.Matched)
	assert.Empty(t, h.notes.ofType(domain.NotificationRentOverdue))
	assert.Empty(t, h.email.sent)
}

func TestDetectOverdue_RepeatPolicy(t *testing.T) {
	late := withEnd(rent("late", domain.RentStatusActive, testNow.Add(-10*24*time.Hour)), testNow.Add(-2*24*time.Hour))

	t.Run("daily", func(t *testing.T) {
		h := newHarness(t)
		h.rents.rents = []domain.RentDetails{late}

		run(t, h, h.runner.detectOverdue)
		second := run(t, h, h.runner.detectOverdue)

		assert.Equal(t, 1, second.Suppressed)
		assert.Len(t, h.notes.ofType(domain.NotificationRentOverdue), 1)
	})

	t.Run("always", func(t *testing.T) {
		h := newHarness(t)
		h.cfg.Notifications.OverdueRepeat = string(domain.RepeatAlways)
		h.build()
		h.rents.rents = []domain.RentDetails{late}

		run(t, h, h.runner.detectOverdue)
		run(t, h, h.runner.detectOverdue)

		assert.Len(t, h.notes.ofType(domain.NotificationRentOverdue), 2)
	})
}

func TestDetectOverdue_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.rents.findErr = errors.New("timeout")

	_, err := h.runner.detectOverdue(context.Background(), logger.Get())
	assert.Error(t, err)
}

func TestSendReturnReminders_HorizonExactness(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withEnd(rent("in-30h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(30*time.Hour)),
		withEnd(rent("in-24h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(24*time.Hour)),
		withEnd(rent("in-50h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(50*time.Hour)),
		withEnd(rent("in-80h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(80*time.Hour)),
		withEnd(rent("in-100h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(100*time.Hour)),
		withEnd(rent("in-10h", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(10*time.Hour)),
	}

	sum := run(t, h, h.runner.sendReturnReminders)

	reminders := h.notes.ofType(domain.NotificationRentReturnReminder)
	require.Len(t, reminders, 4)
	assert.Equal(t, 4, sum.Matched)

	byRent := make(map[string]domain.Notification)
	for _, n := range reminders {
		byRent[n.Metadata["rent_id"].(string)] = n
	}

	assert.Equal(t, 1, byRent["in-30h"].Metadata["horizon_days"])
	assert.Equal(t, domain.PriorityHigh, byRent["in-30h"].Priority)
	assert.Equal(t, "Return due tomorrow", byRent["in-30h"].Title)
	assert.Equal(t, 1, byRent["in-24h"].Metadata["horizon_days"])
	assert.Equal(t, 2, byRent["in-50h"].Metadata["horizon_days"])
	assert.Equal(t, domain.PriorityMedium, byRent["in-50h"].Priority)
	assert.Equal(t, 3, byRent["in-80h"].Metadata["horizon_days"])
	assert.NotContains(t, byRent, "in-100h")
	assert.NotContains(t, byRent, "in-10h")
	for _, n := range reminders {
		assert.Equal(t, domain.LevelWarning, n.Level)
	}
}

func TestSendReturnReminders_SkipsRentWithRecordedReturn(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withReturn(withEnd(rent("early", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(30*time.Hour)), testNow.Add(-time.Minute)),
	}

	sum := run(t, h, h.runner.sendReturnReminders)

	assert.Equal(t, 0, sum.Matched)
	assert.Empty(t, h.notes.ofType(domain.NotificationRentReturnReminder))
	assert.Empty(t, h.email.sent)
}

func TestSendReturnReminders_RerunDoesNotDuplicate(t *testing.T) {
	h := newHarness(t)
	h.rents.rents = []domain.RentDetails{
		withEnd(rent("r1", domain.RentStatusActive, testNow.Add(-24*time.Hour)), testNow.Add(30*time.Hour)),
	}

	run(t, h, h.runner.sendReturnReminders)
	second := run(t, h, h.runner.sendReturnReminders)

	assert.Equal(t, 1, second.Suppressed)
	assert.Len(t, h.notes.ofType(domain.NotificationRentReturnReminder), 1)
	assert.Len(t, h.email.sent, 1)
}
