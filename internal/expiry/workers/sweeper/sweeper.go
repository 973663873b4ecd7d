// Package sweeper drives the periodic lifecycle pass: expiring due
// certificates, scheduling and delivering holder notices, and lapsing
// stale approval requests. Each phase is independent; a failing phase is
// logged and the pass moves on.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"laurel/internal/expiry/models"
	"laurel/internal/platform/config"
	id "laurel/pkg/domain"
)

// RunResult summarizes one lifecycle pass.
type RunResult struct {
	Expired          int           // certificates transitioned to Expired
	Skipped          int           // sweep candidates left untouched
	NoticesScheduled int           // advance notices newly scheduled
	NoticesDelivered int           // notices delivered this pass
	ProposalsExpired int           // approval requests lapsed past deadline
	Failures         int           // phases or pages that errored
	Duration         time.Duration // time taken for the pass
}

// LifecycleService is the slice of the expiry service the worker drives.
type LifecycleService interface {
	SweepDue(ctx context.Context, after id.CertificateID, limit int) (*models.SweepResult, id.CertificateID, error)
	ScheduleUpcoming(ctx context.Context, after id.CertificateID, limit int) (scheduled int, next id.CertificateID, err error)
	DeliverDueNotices(ctx context.Context, limit int) (delivered int, err error)
}

// ApprovalSweeper lapses approval requests past their deadline.
// Implemented by the multi-signature coordinator.
type ApprovalSweeper interface {
	ExpireStale(ctx context.Context, caller id.UserID) (int, error)
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(s *Sweeper) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithMaxPages bounds how many pages each paginated phase may walk per
// pass. The remainder carries over to the next tick.
func WithMaxPages(pages int) Option {
	return func(s *Sweeper) {
		if pages > 0 {
			s.maxPages = pages
		}
	}
}

type Sweeper struct {
	lifecycle LifecycleService
	approvals ApprovalSweeper
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	maxPages  int
}

func New(lifecycle LifecycleService, approvals ApprovalSweeper, opts ...Option) *Sweeper {
	s := &Sweeper{
		lifecycle: lifecycle,
		approvals: approvals,
		logger:    slog.Default(),
		interval:  config.DefaultSweepInterval,
		batchSize: config.DefaultSweepBatchSize,
		maxPages:  10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res := s.RunOnce(ctx)
			res.Duration = time.Since(startTime)

			s.logger.Info("lifecycle_sweep_completed",
				"expired", res.Expired,
				"skipped", res.Skipped,
				"notices_scheduled", res.NoticesScheduled,
				"notices_delivered", res.NoticesDelivered,
				"proposals_expired", res.ProposalsExpired,
				"failures", res.Failures,
				"duration_ms", res.Duration.Milliseconds(),
			)

		case <-ctx.Done():
			s.logger.Info("lifecycle sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single lifecycle pass. Phase failures are logged and
// counted; the pass always runs every phase.
func (s *Sweeper) RunOnce(ctx context.Context) *RunResult {
	res := &RunResult{}
	s.sweepDue(ctx, res)
	s.scheduleNotices(ctx, res)
	s.deliverNotices(ctx, res)
	s.expireProposals(ctx, res)
	return res
}

func (s *Sweeper) sweepDue(ctx context.Context, res *RunResult) {
	var cursor id.CertificateID
	for page := 0; page < s.maxPages; page++ {
		swept, next, err := s.lifecycle.SweepDue(ctx, cursor, s.batchSize)
		if err != nil {
			s.logger.Error("due sweep page failed", "error", err)
			res.Failures++
			return
		}
		res.Expired += swept.Expired
		res.Skipped += swept.Skipped
		if next.IsZero() {
			return
		}
		cursor = next
	}
}

func (s *Sweeper) scheduleNotices(ctx context.Context, res *RunResult) {
	var cursor id.CertificateID
	for page := 0; page < s.maxPages; page++ {
		scheduled, next, err := s.lifecycle.ScheduleUpcoming(ctx, cursor, s.batchSize)
		if err != nil {
			s.logger.Error("notice scheduling page failed", "error", err)
			res.Failures++
			return
		}
		res.NoticesScheduled += scheduled
		if next.IsZero() {
			return
		}
		cursor = next
	}
}

func (s *Sweeper) deliverNotices(ctx context.Context, res *RunResult) {
	delivered, err := s.lifecycle.DeliverDueNotices(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("notice delivery failed", "error", err)
		res.Failures++
		return
	}
	res.NoticesDelivered += delivered
}

func (s *Sweeper) expireProposals(ctx context.Context, res *RunResult) {
	expired, err := s.approvals.ExpireStale(ctx, id.UserID{})
	if err != nil {
		s.logger.Error("proposal expiry failed", "error", err)
		res.Failures++
		return
	}
	res.ProposalsExpired += expired
}
