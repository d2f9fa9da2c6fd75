package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/i18n"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/service"
)

var testNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

// fakeRentRepo keeps rents in memory and evaluates predicates the way the
// SQL store does.
type fakeRentRepo struct {
	mu        sync.Mutex
	rents     []domain.RentDetails
	updateErr error
	findErr   error
}

func (f *fakeRentRepo) FindByPredicate(ctx context.Context, p repository.RentPredicate) ([]domain.RentDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.RentDetails
	for _, r := range f.rents {
		if p.Matches(&r.Rent) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRentRepo) BulkUpdateStatus(ctx context.Context, p repository.RentPredicate, status domain.RentStatus) ([]domain.RentDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if !p.Status.CanTransitionTo(status) {
		return nil, errors.New("illegal transition")
	}
	var out []domain.RentDetails
	for i := range f.rents {
		if p.Matches(&f.rents[i].Rent) {
			f.rents[i].Status = status
			out = append(out, f.rents[i])
		}
	}
	return out, nil
}

func (f *fakeRentRepo) ListActiveAt(ctx context.Context, carID string, at time.Time) ([]domain.Rent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Rent
	for _, r := range f.rents {
		if r.CarID != carID || r.IsDeleted || r.Status != domain.RentStatusActive {
			continue
		}
		if r.StartDate.After(at) || (r.ReturnedAt.Valid && !r.ReturnedAt.Time.After(at)) {
			continue
		}
		out = append(out, r.Rent)
	}
	return out, nil
}

func (f *fakeRentRepo) status(id string) domain.RentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rents {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

type fakeVehicleRepo struct {
	vehicles []domain.Vehicle
}

func (f *fakeVehicleRepo) FindByInsuranceExpiryWindow(ctx context.Context, from, to time.Time, activeOnly bool) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range f.vehicles {
		if !v.InsuranceExpiryDate.Valid {
			continue
		}
		exp := v.InsuranceExpiryDate.Time
		if exp.Before(from) || exp.After(to) {
			continue
		}
		if activeOnly && v.Status != domain.VehicleStatusActive {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InsuranceExpiryDate.Time.Before(out[j].InsuranceExpiryDate.Time)
	})
	return out, nil
}

type fakeOrgRepo struct {
	owners map[string]*domain.Owner
	calls  int
}

func (f *fakeOrgRepo) GetOwner(ctx context.Context, orgID string) (*domain.Owner, error) {
	f.calls++
	if o, ok := f.owners[orgID]; ok {
		return o, nil
	}
	return nil, repository.ErrOwnerNotFound
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	items     []domain.Notification
	deleteErr error
	cutoff    time.Time
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == "" {
		n.ID = fmt.Sprintf("n-%d", len(f.items)+1)
	}
	n.CreatedAt = testNow
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotificationRepo) ExistsByDedupeKey(ctx context.Context, userID, key string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.UserID == userID && n.DedupeKey() == key && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 4, nil
}

func (f *fakeNotificationRepo) ofType(t domain.NotificationType) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.items {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []service.EmailMessage
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg service.EmailMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "delivery-1", nil
}

type harness struct {
	rents    *fakeRentRepo
	vehicles *fakeVehicleRepo
	orgs     *fakeOrgRepo
	notes    *fakeNotificationRepo
	email    *fakeEmail
	cfg      *config.Config
	runner   *JobRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rents:    &fakeRentRepo{},
		vehicles: &fakeVehicleRepo{},
		orgs: &fakeOrgRepo{owners: map[string]*domain.Owner{
			"org-1": {OrgID: "org-1", OrgName: "Rent A Car", UserID: "owner-1", Name: "Sam", Email: "sam@rentacar.test", Locale: "en"},
		}},
		notes: &fakeNotificationRepo{},
		email: &fakeEmail{},
		cfg:   config.Default(),
	}
	h.cfg.Notifications.AppBaseURL = "https://app.fleetrent.test"
	h.build()
	return h
}

// build wires the runner; call again after changing cfg.
func (h *harness) build() {
	clock := func() time.Time { return testNow }
	notifier := service.NewNotificationService(h.notes, h.email, i18n.NewComposer("en"),
		service.WithNotificationClock(clock))
	h.runner = NewJobRunner(
		&Repositories{Rents: h.rents, Vehicles: h.vehicles, Orgs: h.orgs, Notifications: h.notes},
		&Services{Notification: notifier},
		h.cfg,
		WithClock(clock),
	)
}

func rent(id string, status domain.RentStatus, start time.Time) domain.RentDetails {
	return domain.RentDetails{
		Rent: domain.Rent{
			ID:           id,
			OrgID:        "org-1",
			CarID:        "car-" + id,
			CustomerID:   "cust-1",
			YearSequence: 1,
			Year:         2025,
			StartDate:    start,
			Status:       status,
			TotalPrice:   decimal.NewNullDecimal(decimal.NewFromInt(300)),
			PaidAmount:   decimal.NewFromInt(100),
		},
		CarMake:           "Toyota",
		CarModel:          "Yaris",
		CarPlateNumber:    "AB-123-CD",
		CustomerFirstName: "Jane",
		CustomerLastName:  "Doe",
		CustomerPhone:     null.StringFrom("+1 555 0100"),
		CustomerEmail:     null.StringFrom("jane@example.com"),
	}
}

func withEnd(r domain.RentDetails, end time.Time) domain.RentDetails {
	r.ExpectedEndDate = null.TimeFrom(end)
	return r
}

func withReturn(r domain.RentDetails, at time.Time) domain.RentDetails {
	r.ReturnedAt = null.TimeFrom(at)
	return r
}

func vehicle(id string, expiry time.Time) domain.Vehicle {
	return domain.Vehicle{
		ID:                  id,
		OrgID:               "org-1",
		Make:                "Renault",
		Model:               "Clio",
		PlateNumber:         "XY-987-ZW",
		Status:              domain.VehicleStatusActive,
		InsuranceExpiryDate: null.TimeFrom(expiry),
	}
}
