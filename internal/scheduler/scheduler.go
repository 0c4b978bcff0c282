// Package scheduler drives unattended monitoring runs on a cron cadence,
// on top of the same Orchestrator a one-shot CLI invocation uses. Unlike
// the teacher's task scheduler — which submits work to a queue and moves
// on — a monitoring run's own concurrency cap already bounds its cost, so
// this scheduler calls the Orchestrator synchronously from within the
// cron job and leans on cron.SkipIfStillRunning to avoid pile-up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/catalogwatcher/catalog-watcher/internal/config"
	"github.com/catalogwatcher/catalog-watcher/internal/orchestrator"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	"github.com/catalogwatcher/catalog-watcher/pkg/cronx"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const component = "scheduler"

// Runner is the narrow slice of the Orchestrator the Scheduler drives.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.RunSummary, error)
}

// PairLister returns every (retailer, category) pair currently registered,
// recomputed on each cron firing so a retailer added at runtime is picked
// up without a restart.
type PairLister func() []orchestrator.Pair

// Scheduler fires the Orchestrator on the cadences configured in
// config.SchedulerConfig: a weekly monitoring pass over every registered
// pair, and an occasional baseline refresh.
type Scheduler struct {
	cfg            config.SchedulerConfig
	runner         Runner
	pairs          PairLister
	concurrencyCap int
	batchOutputDir string

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// New builds a Scheduler. runner and pairs must both be non-nil.
func New(cfg config.SchedulerConfig, runner Runner, pairs PairLister, concurrencyCap int, batchOutputDir string) *Scheduler {
	if runner == nil {
		panic("scheduler: Runner is required")
	}
	if pairs == nil {
		panic("scheduler: PairLister is required")
	}

	return &Scheduler{
		cfg:            cfg,
		runner:         runner,
		pairs:          pairs,
		concurrencyCap: concurrencyCap,
		batchOutputDir: batchOutputDir,
	}
}

// Start registers the configured cadences on a cron engine and starts it.
// An empty TimeSpec for a cadence simply leaves that cadence unregistered.
// serviceStopWG.Done is called once serviceStopCtx is cancelled and the
// resulting Stop has returned (an explicit Stop call does not call it). On
// a duplicate Start or a registration error it is called before Start
// returns.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting scheduler")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("scheduler already running, ignoring duplicate Start call")
		return nil
	}

	s.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	if err := s.registerTasks(serviceStopCtx); err != nil {
		serviceStopWG.Done()
		return err
	}

	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"registered_schedules": len(s.cron.Entries()),
	}).Info("scheduler initialized")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop stops the cron engine, waiting for any in-flight run to return.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("stopping scheduler")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("scheduler stopped")
}

func (s *Scheduler) registerTasks(serviceStopCtx context.Context) error {
	if s.cfg.WeeklyMonitoringTimeSpec != "" {
		if err := s.register(s.cfg.WeeklyMonitoringTimeSpec, store.RunMonitoring, serviceStopCtx); err != nil {
			return fmt.Errorf("scheduler: registering weekly monitoring cadence %q: %w", s.cfg.WeeklyMonitoringTimeSpec, err)
		}
	}
	if s.cfg.BaselineRefreshTimeSpec != "" {
		if err := s.register(s.cfg.BaselineRefreshTimeSpec, store.RunBaseline, serviceStopCtx); err != nil {
			return fmt.Errorf("scheduler: registering baseline refresh cadence %q: %w", s.cfg.BaselineRefreshTimeSpec, err)
		}
	}
	return nil
}

func (s *Scheduler) register(timeSpec string, runType store.RunType, serviceStopCtx context.Context) error {
	_, err := s.cron.AddFunc(timeSpec, func() {
		s.runOnce(serviceStopCtx, runType)
	})
	return err
}

func (s *Scheduler) runOnce(ctx context.Context, runType store.RunType) {
	pairs := s.pairs()
	if len(pairs) == 0 {
		applog.WithComponentAndFields(component, applog.Fields{"run_type": string(runType)}).
			Warn("no retailer/category pairs registered, skipping scheduled run")
		return
	}

	started := time.Now()
	summary, err := s.runner.Run(ctx, orchestrator.Request{
		Pairs:          pairs,
		RunType:        runType,
		ConcurrencyCap: s.concurrencyCap,
		BatchOutputDir: s.batchOutputDir,
	})

	fields := applog.Fields{
		"run_type": string(runType),
		"pairs":    len(pairs),
		"elapsed":  time.Since(started).String(),
	}
	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Error("scheduled run failed")
		return
	}

	failed := 0
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			failed++
		}
	}
	fields["failed_pairs"] = failed
	fields["cancelled"] = summary.Cancelled
	applog.WithComponentAndFields(component, fields).Info("scheduled run completed")
}
