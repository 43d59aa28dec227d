/*
scheduler.go - Automated period rollover scheduler

PURPOSE:
  Periodically checks whether the newest period has run its course and,
  if so, opens the next one. The new period inherits the closing balance
  and reserve pools, so a user who never touches the app still gets a
  continuous chain.

DESIGN:
  - Runs on a cron schedule (default: hourly)
  - Opens periods one at a time until the newest period is current,
    so a long-offline server catches up on restart
  - Does nothing while the chain is empty; the first period is seeded
    through the API

CONFIGURATION:
  - Spec:       cron expression or descriptor ("@hourly", "@daily")
  - PeriodDays: nominal period length in days

USAGE:
  scheduler := NewRolloverScheduler(engine, 30, "@hourly", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - finance/coordinator.go: AddPeriod
  - cmd/server/main.go: Scheduler startup
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/budget-engine/finance"
)

// RolloverScheduler opens the next period once the current one has run
// its nominal length.
type RolloverScheduler struct {
	Engine     *finance.Coordinator
	PeriodDays int

	cron *cron.Cron
	log  *logrus.Entry
}

// NewRolloverScheduler creates a scheduler. Spec is a cron expression or
// descriptor understood by robfig/cron.
func NewRolloverScheduler(engine *finance.Coordinator, periodDays int, spec string, logger *logrus.Logger) (*RolloverScheduler, error) {
	rs := &RolloverScheduler{
		Engine:     engine,
		PeriodDays: periodDays,
		cron:       cron.New(),
		log:        logger.WithField("component", "rollover_scheduler"),
	}

	if _, err := rs.cron.AddFunc(spec, rs.tick); err != nil {
		return nil, err
	}
	return rs, nil
}

// Start begins the scheduler and immediately runs one catch-up pass.
func (rs *RolloverScheduler) Start() {
	rs.tick()
	rs.cron.Start()
	rs.log.WithField("period_days", rs.PeriodDays).Info("scheduler started")
}

// Stop stops the scheduler and waits for a running tick to finish.
func (rs *RolloverScheduler) Stop() {
	ctx := rs.cron.Stop()
	<-ctx.Done()
	rs.log.Info("scheduler stopped")
}

// tick opens periods until the newest one is current.
func (rs *RolloverScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := finance.Today()
	for {
		last, ok := rs.Engine.Chain().Last()
		if !ok {
			return
		}

		due := last.StartDate.AddDays(rs.PeriodDays)
		if today.Before(due) {
			return
		}

		period, err := rs.Engine.AddPeriod(ctx, last.ID, due)
		if err != nil {
			rs.log.WithError(err).WithField("after", last.ID).Error("rollover failed")
			return
		}
		rs.log.WithFields(logrus.Fields{
			"period_id":  period.ID,
			"start_date": period.StartDate.String(),
		}).Info("opened next period")
	}
}
