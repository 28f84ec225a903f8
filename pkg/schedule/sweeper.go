package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamdocs/notifier/pkg/dispatch"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
)

// lookAhead lets a sweep pick up records due slightly in the future, so
// a notification scheduled between two sweeps is not a full period late.
const lookAhead = 5 * time.Minute

// DispatchFunc sends one notification. The sweeper distinguishes
// dispatch.ErrTargetItemMissing from other failures.
type DispatchFunc func(ctx context.Context, n notification.Notification) error

// Sweeper processes due scheduled events. It owns no timer; an external
// scheduler invokes Run periodically.
type Sweeper struct {
	repo     Repository
	dispatch DispatchFunc
	log      *slog.Logger

	reclaimAfter time.Duration
	now          func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithReclaimAfter makes the sweep unclaim records that have been claimed
// longer than d before selecting, recovering events orphaned by a sweep
// that crashed between claim and delete. Disabled by default.
func WithReclaimAfter(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.reclaimAfter = d }
}

// WithSweeperClock overrides the time source, for tests.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper wires a sweeper.
func NewSweeper(repo Repository, dispatch DispatchFunc, log *slog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{repo: repo, dispatch: dispatch, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep: select every record due before now plus the
// look-ahead window and attempt to claim and dispatch each one
// independently. One record's failure never aborts the sweep.
func (s *Sweeper) Run(ctx context.Context) error {
	now := s.now()

	if s.reclaimAfter > 0 {
		if err := s.reclaimOrphans(ctx, now); err != nil {
			s.log.ErrorContext(ctx, "orphaned claim recovery failed", logger.Error(err))
		}
	}

	horizon := now.Add(lookAhead)
	events, err := s.repo.Find(ctx, Filter{SendAtBefore: &horizon})
	if err != nil {
		return err
	}
	for _, event := range events {
		s.dispatchEvent(ctx, event)
	}
	return nil
}

func (s *Sweeper) dispatchEvent(ctx context.Context, event Event) {
	if event.ClaimedAt != nil {
		return
	}
	claimed, err := s.repo.Claim(ctx, event.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "scheduled event claim failed",
			logger.Error(err), logger.EventID(event.ID))
		return
	}
	if !claimed {
		return
	}

	if err := s.dispatch(ctx, event.Notification); err != nil {
		if errors.Is(err, dispatch.ErrTargetItemMissing) {
			// The item was hard deleted; retrying can never succeed.
			s.log.WarnContext(ctx, "scheduled event discarded, target item missing",
				logger.EventID(event.ID),
				logger.AccountID(event.AccountID),
				logger.Kind(string(event.Kind)))
		} else {
			s.log.ErrorContext(ctx, "scheduled event dispatch failed",
				logger.Error(err),
				logger.EventID(event.ID),
				logger.AccountID(event.AccountID),
				logger.Kind(string(event.Kind)))
			if err := s.repo.Unclaim(ctx, event.ID); err != nil {
				s.log.ErrorContext(ctx, "scheduled event unclaim failed",
					logger.Error(err), logger.EventID(event.ID))
			}
			return
		}
	}

	if err := s.repo.Delete(ctx, event.ID); err != nil {
		s.log.ErrorContext(ctx, "scheduled event delete failed",
			logger.Error(err), logger.EventID(event.ID))
	}
}

func (s *Sweeper) reclaimOrphans(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.reclaimAfter)
	orphans, err := s.repo.Find(ctx, Filter{ClaimedBefore: &cutoff})
	if err != nil {
		return err
	}
	for _, event := range orphans {
		if err := s.repo.Unclaim(ctx, event.ID); err != nil {
			s.log.ErrorContext(ctx, "orphaned claim release failed",
				logger.Error(err), logger.EventID(event.ID))
			continue
		}
		s.log.WarnContext(ctx, "released orphaned scheduled event claim",
			logger.EventID(event.ID), logger.AccountID(event.AccountID))
	}
	return nil
}
