package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/service"
)

// Job names accepted by Run and used in every log line of a run.
const (
	JobTransitionRents      = "transition-rents"
	JobDetectOverdue        = "detect-overdue"
	JobSendReturnReminders  = "send-return-reminders"
	JobCheckInsuranceExpiry = "check-insurance-expiry"
	JobSweepNotifications   = "sweep-notifications"
	JobAll                  = "all"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    *Repositories
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Repositories holds the stores the jobs read and mutate
type Repositories struct {
	Rents         repository.RentRepository
	Vehicles      repository.VehicleRepository
	Orgs          repository.OrganizationRepository
	Notifications repository.NotificationRepository
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notification service.NotificationService
}

type Option func(*JobRunner)

// WithClock replaces time.Now as the instant each run evaluates against.
func WithClock(now func() time.Time) Option {
	return func(jr *JobRunner) { jr.now = now }
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos *Repositories, services *Services, cfg *config.Config, opts ...Option) *JobRunner {
	jr := &JobRunner{
		repos:    repos,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(jr)
	}
	return jr
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Summary counts what one run did.
type Summary struct {
	Matched    int
	Notified   int
	Suppressed int
	Skipped    int
	Failed     int
	Deleted    int64
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("matched", s.Matched),
		slog.Int("notified", s.Notified),
		slog.Int("suppressed", s.Suppressed),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Int64("deleted", s.Deleted),
	)
}

type jobFunc func(ctx context.Context, log *slog.Logger) (Summary, error)

type jobResult struct {
	summary Summary
	err     error
}

// runWithRecovery runs one job under a deadline, with panic recovery and a
// fresh run id. A run still going at the deadline is abandoned: its context is
// canceled and the caller returns without waiting for it. Rows it already
// committed stay committed; the next tick picks up the rest.
func (jr *JobRunner) runWithRecovery(jobName string, timeout time.Duration, fn jobFunc) (Summary, error) {
	log := logger.WithJob(jobName, uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("Starting job", "timeout", timeout)
	started := time.Now()

	done := make(chan jobResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Job panicked", "panic", r)
				done <- jobResult{err: fmt.Errorf("job %s panicked: %v", jobName, r)}
			}
		}()
		sum, err := fn(ctx, log)
		done <- jobResult{summary: sum, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Error("Job failed", "duration", time.Since(started), "summary", res.summary, "error", res.err)
			return res.summary, res.err
		}
		log.Info("Job completed", "duration", time.Since(started), "summary", res.summary)
		return res.summary, nil
	case <-ctx.Done():
		log.Error("Job abandoned at deadline", "duration", time.Since(started), "error", ctx.Err())
		return Summary{}, fmt.Errorf("job %s abandoned: %w", jobName, ctx.Err())
	}
}

// TransitionRents moves reserved rents to active and returned rents to completed
func (jr *JobRunner) TransitionRents() {
	jr.runWithRecovery(JobTransitionRents, jr.config.Scheduler.TransitionTimeout(), jr.transitionRents)
}

// DetectOverdue alerts owners about active rents past their expected end date
func (jr *JobRunner) DetectOverdue() {
	jr.runWithRecovery(JobDetectOverdue, jr.config.Scheduler.JobTimeout(), jr.detectOverdue)
}

// SendReturnReminders alerts owners about rents due back within the horizons
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery(JobSendReturnReminders, jr.config.Scheduler.JobTimeout(), jr.sendReturnReminders)
}

// CheckInsuranceExpiry alerts owners about vehicle insurance about to expire
func (jr *JobRunner) CheckInsuranceExpiry() {
	jr.runWithRecovery(JobCheckInsuranceExpiry, jr.config.Scheduler.JobTimeout(), jr.checkInsuranceExpiry)
}

// SweepNotifications deletes read notifications past the retention window
func (jr *JobRunner) SweepNotifications() {
	jr.runWithRecovery(JobSweepNotifications, jr.config.Scheduler.JobTimeout(), jr.sweepNotifications)
}

// RunAll runs every job once, in order (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.TransitionRents()
	jr.DetectOverdue()
	jr.SendReturnReminders()
	jr.CheckInsuranceExpiry()
	jr.SweepNotifications()
}

// Run runs the named job once.
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobTransitionRents:
		jr.TransitionRents()
	case JobDetectOverdue:
		jr.DetectOverdue()
	case JobSendReturnReminders:
		jr.SendReturnReminders()
	case JobCheckInsuranceExpiry:
		jr.CheckInsuranceExpiry()
	case JobSweepNotifications:
		jr.SweepNotifications()
	case JobAll:
		jr.RunAll()
	default:
		return fmt.Errorf("unknown job %q", name)
	}
	return nil
}

// JobNames lists the names Run accepts.
func JobNames() []string {
	return []string{
		JobTransitionRents,
		JobDetectOverdue,
		JobSendReturnReminders,
		JobCheckInsuranceExpiry,
		JobSweepNotifications,
		JobAll,
	}
}

// ownerLookup caches organization owners for the length of one run.
type ownerLookup struct {
	repo    repository.OrganizationRepository
	owners  map[string]*domain.Owner
	missing map[string]bool
}

func newOwnerLookup(repo repository.OrganizationRepository) *ownerLookup {
	return &ownerLookup{
		repo:    repo,
		owners:  make(map[string]*domain.Owner),
		missing: make(map[string]bool),
	}
}

func (o *ownerLookup) get(ctx context.Context, orgID string) (*domain.Owner, error) {
	if owner, ok := o.owners[orgID]; ok {
		return owner, nil
	}
	if o.missing[orgID] {
		return nil, repository.ErrOwnerNotFound
	}

	owner, err := o.repo.GetOwner(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			o.missing[orgID] = true
		}
		return nil, err
	}
	o.owners[orgID] = owner
	return owner, nil
}

// notify sends one request and records the outcome in sum. Failures are
// logged and contained to this request.
func (jr *JobRunner) notify(ctx context.Context, log *slog.Logger, sum *Summary, req service.NotificationRequest, attrs ...any) {
	n, err := jr.services.Notification.Notify(ctx, req)
	switch {
	case err == nil:
		sum.Notified++
		log.Debug("Notification created", append(attrs, "type", req.Type, "notification_id", n.ID)...)
	case service.IsSuppressed(err):
		sum.Suppressed++
		log.Debug("Notification suppressed by repeat policy", append(attrs, "type", req.Type, "dedupe_key", req.DedupeKey)...)
	default:
		sum.Failed++
		log.Error("Failed to create notification", append(attrs, "type", req.Type, "error", err)...)
	}
}

// resolveOwner returns nil when the row must be skipped; the reason is
// already logged and counted.
func (jr *JobRunner) resolveOwner(ctx context.Context, log *slog.Logger, sum *Summary, owners *ownerLookup, orgID string, attrs ...any) *domain.Owner {
	owner, err := owners.get(ctx, orgID)
	if err != nil {
		sum.Skipped++
		if errors.Is(err, repository.ErrOwnerNotFound) {
			log.Warn("Organization owner not found, skipping", append(attrs, "org_id", orgID)...)
		} else {
			log.Error("Failed to look up organization owner, skipping", append(attrs, "org_id", orgID, "error", err)...)
		}
		return nil
	}
	return owner
}

func (jr *JobRunner) rentURL(rentID string) string {
	return jr.config.Notifications.AppBaseURL + "/rents/" + rentID
}

func (jr *JobRunner) carURL(carID string) string {
	return jr.config.Notifications.AppBaseURL + "/cars/" + carID
}
