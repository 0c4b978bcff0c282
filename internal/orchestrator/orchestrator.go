// Package orchestrator is the top-level coordinator (spec §4.8): given a
// run request, it creates a MonitoringRun row per (retailer, category)
// pair, fans the Crawler out across pairs up to a concurrency cap, hands
// each pair's crawl result to the Change Detector, and writes a batch
// file for any pair that turned up new products.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/catalogwatcher/catalog-watcher/internal/changedetect"
	"github.com/catalogwatcher/catalog-watcher/internal/crawler"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/pkg/mark"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
	"github.com/catalogwatcher/catalog-watcher/pkg/strutils"
)

const orchestratorComponent = "orchestrator"

const (
	defaultConcurrency = 3
	minConcurrency     = 1
	maxConcurrency     = 8
)

// CrawlerRunner is the shape the Orchestrator needs from the Catalog
// Crawler.
type CrawlerRunner interface {
	Walk(ctx context.Context, cfg *retailer.Config, category string, runType store.RunType) (*crawler.WalkResult, error)
}

// DetectorRunner is the shape the Orchestrator needs from the Change
// Detector.
type DetectorRunner interface {
	DetectBatch(ctx context.Context, cfg *retailer.Config, category string, products []result.CatalogProduct) (*changedetect.BatchResult, error)
	Persist(ctx context.Context, batch *changedetect.BatchResult) error
}

// RetailerLookup resolves a retailer ID to its Config. The package-level
// retailer.Get function satisfies this.
type RetailerLookup func(id string) (*retailer.Config, bool)

// Notifier is the narrow slice of the notification Sender contract the
// Orchestrator needs to report a run's completion or failure. A nil
// Notifier is valid and simply skips notification.
type Notifier interface {
	NotifyDefault(message string) error
	NotifyDefaultWithError(message string) error
}

// Pair is one (retailer, category) combination to run.
type Pair struct {
	Retailer string
	Category string
}

// Request is one invocation's worth of work.
type Request struct {
	Pairs          []Pair
	RunType        store.RunType
	ConcurrencyCap int
	BatchOutputDir string
}

// PairOutcome is what happened for one (retailer, category) pair.
type PairOutcome struct {
	Pair            Pair
	MonitoringRunID int64
	Walk            *crawler.WalkResult
	Batch           *changedetect.BatchResult
	BatchFilePath   string
	Err             error
}

// RunSummary is the Orchestrator's return value for one invocation.
type RunSummary struct {
	Outcomes  []PairOutcome
	Cancelled bool
}

// Orchestrator wires the Crawler, the Change Detector, and the retailer
// registry together to run whole monitoring passes.
type Orchestrator struct {
	store          *store.Store
	crawler        CrawlerRunner
	detector       DetectorRunner
	lookup         RetailerLookup
	notifier       Notifier
	batchOutputDir string
}

// New builds an Orchestrator. notifier may be nil.
func New(s *store.Store, c CrawlerRunner, d DetectorRunner, lookup RetailerLookup, notifier Notifier) *Orchestrator {
	return &Orchestrator{store: s, crawler: c, detector: d, lookup: lookup, notifier: notifier}
}

// Run executes req, fanning out over its pairs up to ConcurrencyCap
// (clamped to [1,8], default 3 — spec §9's "typical cap: 2-4" is a
// guideline, not a hard ceiling). Partial failures on individual pairs
// never abort the run; they're recorded on that pair's PairOutcome and
// MonitoringRun row (spec §7's persistence-error policy).
func (o *Orchestrator) Run(ctx context.Context, req Request) (*RunSummary, error) {
	log := applog.WithComponent(orchestratorComponent).WithField("run_type", string(req.RunType)).WithField("pairs", len(req.Pairs))
	log.Info("starting monitoring run")

	if len(req.Pairs) == 0 {
		return &RunSummary{}, nil
	}

	outcomes := make([]PairOutcome, len(req.Pairs))

	// A plain errgroup.Group, not errgroup.WithContext: one pair's failure
	// must never cancel its siblings' crawls (spec §7's "continues with
	// other pairs"), so every worker func always returns nil and reports
	// its own failure on its PairOutcome instead.
	var g errgroup.Group
	g.SetLimit(clampConcurrency(req.ConcurrencyCap))
	for i, pair := range req.Pairs {
		i, pair := i, pair
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					applog.WithComponent(orchestratorComponent).
						WithField("retailer", pair.Retailer).WithField("category", pair.Category).
						Error(fmt.Sprintf("recovered from panic running pair: %v", r))
					outcomes[i] = PairOutcome{Pair: pair, Err: fmt.Errorf("panic running %s/%s: %v", pair.Retailer, pair.Category, r)}
				}
			}()
			outcomes[i] = o.runPair(ctx, pair, req.RunType, req.BatchOutputDir)
			return nil
		})
	}
	_ = g.Wait()

	summary := &RunSummary{Outcomes: outcomes, Cancelled: ctx.Err() != nil}
	o.notifyCompletion(summary)
	return summary, nil
}

// runPair runs one (retailer, category) pair end to end: it owns that
// pair's MonitoringRun row from creation to the final update, so a
// failure partway through still leaves an accurate, closed-out record
// (spec §4.8 step 1, §7).
func (o *Orchestrator) runPair(ctx context.Context, pair Pair, runType store.RunType, batchOutputDir string) PairOutcome {
	log := applog.WithComponent(orchestratorComponent).WithField("retailer", pair.Retailer).WithField("category", pair.Category)

	cfg, ok := o.lookup(pair.Retailer)
	if !ok {
		err := apperrors.New(apperrors.InvalidInput, fmt.Sprintf("unknown retailer %q", pair.Retailer))
		return PairOutcome{Pair: pair, Err: err}
	}

	runID, err := o.store.CreateMonitoringRun(ctx, &store.MonitoringRun{RunType: runType, Retailer: pair.Retailer, Category: pair.Category})
	if err != nil {
		log.WithError(err).Error("failed to create monitoring run row")
		return PairOutcome{Pair: pair, Err: err}
	}

	outcome := PairOutcome{Pair: pair, MonitoringRunID: runID}
	update := &store.MonitoringRun{ID: runID, RunType: runType, Retailer: pair.Retailer, Category: pair.Category, EndState: store.RunStateCompleted}

	walkResult, walkErr := o.crawler.Walk(ctx, cfg, pair.Category, runType)
	if walkResult != nil {
		outcome.Walk = walkResult
		update.ProductsCrawled = walkResult.TotalScanned
	}
	if walkErr != nil {
		log.WithError(walkErr).Warn("crawl failed for pair")
		update.EndState = store.RunStatePartial
		update.ErrorLog = "crawl: " + walkErr.Error()
		outcome.Err = walkErr
	} else if walkResult.Partial || walkResult.Delisted {
		update.EndState = store.RunStatePartial
	}

	if walkErr == nil && len(walkResult.NewProducts) > 0 {
		batch, detectErr := o.detector.DetectBatch(ctx, cfg, pair.Category, walkResult.NewProducts)
		if detectErr == nil {
			detectErr = o.detector.Persist(ctx, batch)
		}
		if detectErr != nil {
			log.WithError(detectErr).Error("change detection failed for pair")
			update.EndState = store.RunStatePartial
			update.ErrorLog = appendErrorLog(update.ErrorLog, "detect: "+detectErr.Error())
			outcome.Err = detectErr
		} else {
			outcome.Batch = batch
			update.NewProducts = len(batch.New)
			update.QueuedForReview = len(batch.ManualReview)

			if path, err := o.writeBatchFile(batchOutputDir, runID, pair, batch); err != nil {
				log.WithError(err).Warn("failed to write batch file")
			} else {
				outcome.BatchFilePath = path
			}
		}
	}

	if ctx.Err() != nil {
		update.EndState = store.RunStatePartial
		update.ErrorLog = appendErrorLog(update.ErrorLog, "cancelled: "+ctx.Err().Error())
	}

	now := time.Now().UTC()
	update.EndedAt = &now
	if err := o.store.UpdateMonitoringRun(ctx, update); err != nil {
		log.WithError(err).Error("failed to close out monitoring run row")
		if outcome.Err == nil {
			outcome.Err = err
		}
	}

	return outcome
}

func (o *Orchestrator) notifyCompletion(summary *RunSummary) {
	if o.notifier == nil {
		return
	}

	var failed, succeeded, newTotal, reviewTotal int
	for _, outcome := range summary.Outcomes {
		if outcome.Err != nil {
			failed++
			continue
		}
		succeeded++
		if outcome.Batch != nil {
			newTotal += len(outcome.Batch.New)
			reviewTotal += len(outcome.Batch.ManualReview)
		}
	}

	sign := mark.New
	if failed > 0 {
		sign = mark.Alert
	}
	message := fmt.Sprintf("monitoring run finished%s: %d pair(s) succeeded, %d failed, %s new product(s) found",
		sign.WithSpace(), succeeded, failed, strutils.FormatCommas(newTotal))
	if reviewTotal > 0 {
		message += fmt.Sprintf("\n%s product(s) need manual review%s", strutils.FormatCommas(reviewTotal), mark.Alert.WithSpace())
	}

	var notifyErr error
	if failed > 0 {
		notifyErr = o.notifier.NotifyDefaultWithError(message)
	} else {
		notifyErr = o.notifier.NotifyDefault(message)
	}
	if notifyErr != nil {
		applog.WithComponent(orchestratorComponent).WithError(notifyErr).Warn("failed to deliver run-completion notification")
	}
}

func appendErrorLog(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

func clampConcurrency(cap int) int {
	if cap == 0 {
		return defaultConcurrency
	}
	if cap < minConcurrency {
		return minConcurrency
	}
	if cap > maxConcurrency {
		return maxConcurrency
	}
	return cap
}
