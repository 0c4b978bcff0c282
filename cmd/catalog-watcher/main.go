package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/changedetect"
	"github.com/catalogwatcher/catalog-watcher/internal/config"
	"github.com/catalogwatcher/catalog-watcher/internal/crawler"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/browser"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/dispatcher"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/llmclient"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/markdown"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/visionclient"
	"github.com/catalogwatcher/catalog-watcher/internal/httpapi"
	"github.com/catalogwatcher/catalog-watcher/internal/notify"
	"github.com/catalogwatcher/catalog-watcher/internal/orchestrator"
	"github.com/catalogwatcher/catalog-watcher/internal/patternlearner"
	"github.com/catalogwatcher/catalog-watcher/internal/pkg/version"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/scheduler"
	"github.com/catalogwatcher/catalog-watcher/internal/service"
	"github.com/catalogwatcher/catalog-watcher/internal/service/task/fetcher"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
	log "github.com/sirupsen/logrus"
)

const defaultBatchOutputDir = "batches"

const schedulerConcurrencyCap = 3

func main() {
	flags := parseFlags()

	appConfig, err := config.InitAppConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logOpts := applog.NewProductionConfig(config.AppName)
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentConfig(config.AppName)
	}
	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	buildInfo := version.Get()
	applog.WithComponentAndFields("main", log.Fields{
		"version": buildInfo.String(),
	}).Info("catalog-watcher starting")

	deps, err := buildDependencies(appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{"error": err}).Fatal("failed to build component graph")
	}
	defer deps.store.Close()

	ctx := context.Background()

	switch {
	case flags.pendingReviews:
		os.Exit(runPendingReviews(ctx, deps.store))

	case flags.selfTestRequested():
		os.Exit(runSelfTest(ctx, appConfig, deps, flags))

	case flags.baseline || flags.weeklyMonitoring || flags.retailersCSV != "" || flags.categoriesCSV != "":
		os.Exit(runOnce(ctx, appConfig, deps, flags))

	default:
		runDaemon(appConfig, deps)
	}
}

// dependencies holds the fully wired component graph, built bottom-up:
// store -> pattern learner -> extractors -> dispatcher -> crawler ->
// change detector -> orchestrator -> scheduler/HTTP API.
type dependencies struct {
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
	notifier     *notify.Service
}

func buildDependencies(cfg *config.AppConfig) (*dependencies, error) {
	st, err := store.Open(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, err
	}

	learner := patternlearner.New(st)

	baseFetcher := fetcher.NewFromConfig(fetcher.Config{
		MaxRetries: cfg.HTTPRetry.MaxRetries,
		RetryDelay: cfg.HTTPRetry.RetryDelay,
	})
	pacedFetcher := fetcher.NewRateLimitFetcher(baseFetcher, cfg.Crawler.DefaultRequestsPerSecond, cfg.Crawler.DefaultBurst)

	cascade := make([]markdown.LLMClient, 0, len(cfg.MarkdownExtractor.Providers))
	for _, p := range cfg.MarkdownExtractor.Providers {
		cascade = append(cascade, llmclient.New(p.Name, p.Endpoint, p.APIKeyEnv, p.Model, pacedFetcher))
	}
	mdExtractor := markdown.New(markdown.Config{
		ServiceURL:            cfg.MarkdownExtractor.ServiceURL,
		ServiceAuthToken:      cfg.MarkdownExtractor.ServiceAuthToken,
		CacheTTL:              cfg.MarkdownExtractor.CacheTTL,
		MaxCatalogTokens:      cfg.MarkdownExtractor.MaxCatalogTokens,
		MaxProductTokens:      cfg.MarkdownExtractor.MaxProductTokens,
		DelistingProbe:        cfg.MarkdownExtractor.DelistingProbe.Enabled,
		DelistingProbeTimeout: cfg.MarkdownExtractor.DelistingProbe.Timeout,
	}, pacedFetcher, st, learner, cascade)

	visionClient := visionclient.New("vision", cfg.BrowserExtractor.VisionEndpoint, cfg.BrowserExtractor.VisionAPIKeyEnv, pacedFetcher)
	browserExtractor := browser.New(browser.Config{
		MaxRetries: cfg.BrowserExtractor.MaxAttempts,
	}, browser.NewStubDriver(), visionClient, learner)

	disp := dispatcher.New(mdExtractor, browserExtractor)
	crawlerSvc := crawler.New(disp, st, cfg.Crawler.MaxPagesPerCategory)
	detector := changedetect.New(st, nil)

	notifySvc, err := notify.New(cfg.Notifier)
	if err != nil {
		st.Close()
		return nil, err
	}

	orch := orchestrator.New(st, crawlerSvc, detector, retailer.Get, notifySvc)

	return &dependencies{store: st, orchestrator: orch, notifier: notifySvc}, nil
}

// runDaemon starts the scheduler and the introspection HTTP API and blocks
// until SIGINT/SIGTERM, mirroring the teacher's cancel-context-then-wait
// shutdown.
func runDaemon(cfg *config.AppConfig, deps *dependencies) {
	pairLister := func() []orchestrator.Pair { return buildPairs(cfg, nil, nil) }
	sched := scheduler.New(cfg.Scheduler, deps.orchestrator, pairLister, schedulerConcurrencyCap, defaultBatchOutputDir)

	handler := httpapi.NewHandler(map[string]httpapi.HealthChecker{
		"store":    httpapi.NewStoreHealthChecker(deps.store),
		"notifier": deps.notifier,
	}, deps.store)
	apiSvc := httpapi.NewService(httpapi.Config{
		Debug:          cfg.Debug,
		ListenPort:     cfg.HTTPAPI.WS.ListenPort,
		AllowOrigins:   cfg.HTTPAPI.CORS.AllowOrigins,
		RequestTimeout: 10 * time.Second,
	}, handler)

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	services := []service.Service{sched, apiSvc}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", log.Fields{"error": err}).Error("failed to start service")
			cancel()
			serviceStopWG.Wait()
			log.Fatal("failed to start one or more services, shutting down")
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	<-termC

	applog.WithComponent("main").Info("shutdown signal received")
	cancel()
	serviceStopWG.Wait()
}

// runOnce triggers a single Orchestrator run for the pairs the flags
// select, then exits -- the CLI-driven alternative to the cron-scheduled
// daemon (spec §6).
func runOnce(ctx context.Context, cfg *config.AppConfig, deps *dependencies, flags cliFlags) int {
	runType := store.RunMonitoring
	if flags.baseline {
		runType = store.RunBaseline
	}

	pairs := buildPairs(cfg, flags.retailers(), flags.categories())
	if len(pairs) == 0 {
		applog.WithComponent("main").Error("no (retailer, category) pairs matched the requested filters")
		return 1
	}

	batchDir := defaultBatchOutputDir
	if flags.batchFile != "" {
		batchDir = flags.batchFile
	}

	summary, err := deps.orchestrator.Run(ctx, orchestrator.Request{
		Pairs:          pairs,
		RunType:        runType,
		ConcurrencyCap: schedulerConcurrencyCap,
		BatchOutputDir: batchDir,
	})
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{"error": err}).Error("monitoring run failed")
		return 1
	}

	failed := summary.Cancelled
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"retailer": o.Pair.Retailer,
				"category": o.Pair.Category,
				"error":    o.Err,
			}).Error("pair run failed")
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

// runPendingReviews lists every observation awaiting manual review and
// exits; it never mutates state.
func runPendingReviews(ctx context.Context, st *store.Store) int {
	observations, err := st.ListPendingReviewObservations(ctx)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{"error": err}).Error("failed to list pending-review observations")
		return 1
	}

	if len(observations) == 0 {
		fmt.Println("no observations pending review")
		return 0
	}

	for _, o := range observations {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", o.ID, o.Retailer, o.Category, o.Title, o.URL)
	}
	return 0
}

// runSelfTest exercises the component graph's own health and (unless
// --quick) the cross-component pair-resolution path, printing a pass/fail
// line per check.
func runSelfTest(ctx context.Context, cfg *config.AppConfig, deps *dependencies, flags cliFlags) int {
	logger := applog.WithComponent("main.selftest")
	ok := true

	checkComponents := flags.componentsOnly || !flags.integrationOnly
	checkIntegration := flags.integrationOnly || !flags.componentsOnly

	if checkComponents {
		if err := deps.store.Health(ctx); err != nil {
			logger.WithError(err).Error("component check failed: store")
			ok = false
		} else {
			logger.Info("component check passed: store")
		}

		if err := deps.notifier.Health(); err != nil {
			logger.WithError(err).Error("component check failed: notifier")
			ok = false
		} else {
			logger.Info("component check passed: notifier")
		}

		if len(retailer.IDs()) == 0 {
			logger.Error("component check failed: retailer registry is empty")
			ok = false
		} else {
			logger.Info("component check passed: retailer registry")
		}
	}

	if checkIntegration && !flags.quick {
		pairs := buildPairs(cfg, nil, nil)
		if len(pairs) == 0 {
			logger.Error("integration check failed: no (retailer, category) pairs resolved from the registry")
			ok = false
		} else {
			logger.WithField("pairs", len(pairs)).Info("integration check passed: pair resolution")
		}
	}

	if flags.includeLive {
		logger.Warn("--include-live requested, but no live LLM/vision/markdown-service credentials are configured in this environment; skipping live reachability checks")
	}

	if ok {
		logger.Info("self-test passed")
		return 0
	}
	logger.Error("self-test failed")
	return 1
}

// buildPairs expands the retailer registry into (retailer, category)
// pairs, honoring config.RetailerOverride.Enabled and the CLI's
// --retailers/--categories filters. A retailer with no override entry is
// enabled by default; an override's Enabled field is only consulted when
// the override entry itself is present.
func buildPairs(cfg *config.AppConfig, retailerFilter, categoryFilter []string) []orchestrator.Pair {
	overrides := make(map[string]config.RetailerOverride, len(cfg.Retailers))
	for _, o := range cfg.Retailers {
		overrides[o.ID] = o
	}

	var pairs []orchestrator.Pair
	for _, id := range retailer.IDs() {
		if len(retailerFilter) > 0 && !slices.Contains(retailerFilter, id) {
			continue
		}
		if o, ok := overrides[id]; ok && !o.Enabled {
			continue
		}

		rc, ok := retailer.Get(id)
		if !ok {
			continue
		}

		categories := make([]string, 0, len(rc.CategoryListingURLs))
		for category := range rc.CategoryListingURLs {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		for _, category := range categories {
			if len(categoryFilter) > 0 && !slices.Contains(categoryFilter, category) {
				continue
			}
			pairs = append(pairs, orchestrator.Pair{Retailer: id, Category: category})
		}
	}
	return pairs
}

// cliFlags is the parsed CLI surface (spec §6).
type cliFlags struct {
	all             bool
	componentsOnly  bool
	integrationOnly bool
	quick           bool
	includeLive     bool

	weeklyMonitoring bool
	baseline         bool
	pendingReviews   bool

	retailersCSV   string
	categoriesCSV  string
	batchFile      string
}

func (f cliFlags) selfTestRequested() bool {
	return f.all || f.componentsOnly || f.integrationOnly || f.quick
}

func (f cliFlags) retailers() []string {
	return splitCSV(f.retailersCSV)
}

func (f cliFlags) categories() []string {
	return splitCSV(f.categoriesCSV)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.BoolVar(&f.all, "all", false, "run the full self-test suite (components and integration checks) and exit")
	flag.BoolVar(&f.componentsOnly, "components-only", false, "run only isolated component health checks and exit")
	flag.BoolVar(&f.integrationOnly, "integration-only", false, "run only cross-component integration checks and exit")
	flag.BoolVar(&f.quick, "quick", false, "run component checks only, skipping slower integration checks")
	flag.BoolVar(&f.includeLive, "include-live", false, "also attempt live reachability checks against external LLM/vision/markdown endpoints")

	flag.BoolVar(&f.weeklyMonitoring, "weekly-monitoring", false, "run one weekly monitoring pass immediately and exit")
	flag.BoolVar(&f.baseline, "baseline", false, "run one baseline-refresh pass immediately and exit")
	flag.BoolVar(&f.pendingReviews, "pending-reviews", false, "list every observation awaiting manual review and exit")

	flag.StringVar(&f.retailersCSV, "retailers", "", "comma-separated retailer IDs to scope a one-shot run to")
	flag.StringVar(&f.categoriesCSV, "categories", "", "comma-separated category names to scope a one-shot run to")
	flag.StringVar(&f.batchFile, "batch-file", "", "output directory for the new-product batch file written by a one-shot run")

	flag.Parse()
	return f
}
