// Package scheduler triggers the nightly debtor materializer run. The
// loop ticks frequently but only fires when the calendar day rolls over
// in the configured anchor timezone, so one run happens per day no
// matter how often the process restarts within the same day.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	"github.com/smallbiznis/paynest/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler requires db, logger, debtor service and clock")

const materializeLockKey = "debtor:materialize:lock"

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Collections *config.CollectionsConfigHolder
	DebtorSvc   debtordomain.Service
	Locker      *ratelimit.Locker `optional:"true"`
	Config      Config            `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	genID       *snowflake.Node
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	debtorSvc   debtordomain.Service
	locker      *ratelimit.Locker

	lastRunDay string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Collections == nil || p.DebtorSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		genID:       p.GenID,
		clock:       p.Clock,
		collections: p.Collections,
		debtorSvc:   p.DebtorSvc,
		locker:      p.Locker,
	}, nil
}

// RunForever ticks until the context is cancelled, firing RunOnce each
// time the local day changes.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	if !s.cfg.RunOnStart {
		s.lastRunDay = s.localDay()
	}

	for {
		if day := s.localDay(); day != s.lastRunDay {
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Warn("materializer run failed", zap.Error(err))
			} else {
				s.lastRunDay = day
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one materializer pass and returns its report.
func (s *Scheduler) RunOnce(ctx context.Context) (debtordomain.RunReport, error) {
	runID := s.genID.Generate()
	log := s.log.With(zap.String("run_id", runID.String()))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, materializeLockKey, s.cfg.RunTimeout)
		if err != nil {
			// Redis being down must not stop collections; run anyway.
			log.Warn("materializer lock unavailable", zap.Error(err))
		} else if !ok {
			log.Info("materializer already running on another replica")
			return debtordomain.RunReport{}, nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, materializeLockKey, token); err != nil {
					log.Warn("materializer lock release failed", zap.Error(err))
				}
			}()
		}
	}

	started := s.clock.Now()
	log.Info("materializer run starting")

	report, err := s.debtorSvc.Materialize(ctx)
	if err != nil {
		log.Error("materializer run aborted", zap.Error(err))
		return report, err
	}

	log.Info("materializer run complete",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("overdue_payments", report.TotalOverduePayments),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", s.clock.Now().Sub(started)),
	)
	return report, nil
}

func (s *Scheduler) localDay() string {
	loc := s.collections.Get().Location()
	return s.clock.Now().In(loc).Format("2006-01-02")
}
