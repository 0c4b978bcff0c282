package browser

import (
	"context"
	"time"
)

// WaitCondition names the retailer-specific extra condition Navigate
// waits for once the DOM itself is ready (spec §4.4 step 1).
type WaitCondition int

const (
	WaitDOMReady WaitCondition = iota
	WaitSelectorPresent
	WaitNetworkIdle
	WaitFixedDelay
)

// Screenshot is one captured image plus the label identifying its role
// (full page, a viewport slice, or a single element) so the vision
// prompt builder can describe it accurately.
type Screenshot struct {
	Label string
	PNG   []byte
	Width int
	Height int
}

// NavigateOptions configures one page visit.
type NavigateOptions struct {
	Wait           WaitCondition
	WaitSelector   string
	FixedDelay     time.Duration
	Timeout        time.Duration
}

// Driver abstracts one stealth-hardened headless browser session (spec
// §4.4). A real implementation wraps an external browser-automation
// toolkit; see StubDriver for why no such driver ships here.
type Driver interface {
	// Navigate loads url and waits for opts.Wait to be satisfied.
	Navigate(ctx context.Context, url string, opts NavigateOptions) error

	// DismissOverlays iterates the generalized close-button selector
	// list and clicks any visible match, returning how many it closed.
	DismissOverlays(ctx context.Context, selectors []string) (int, error)

	// DetectChallenge reports whether a verification challenge
	// (press-and-hold, checkbox, challenge-iframe) is currently showing,
	// and which kind.
	DetectChallenge(ctx context.Context) (ChallengeKind, bool, error)

	// HandleChallenge resolves a previously detected challenge.
	HandleChallenge(ctx context.Context, kind ChallengeKind) error

	// Screenshot captures the current page per mode (single-product
	// takes a fuller set; catalog takes just the full-page shot).
	Screenshot(ctx context.Context, mode ExtractionMode) ([]Screenshot, error)

	// HTML returns the current rendered DOM as a string for the guided
	// DOM tertiary path and the homepage-redirect detector.
	HTML(ctx context.Context) (string, error)

	// CurrentURL returns the resolved URL after any redirects.
	CurrentURL(ctx context.Context) (string, error)

	// Reset closes the in-memory browsing context while retaining the
	// persistent profile directory, ready for the next retry attempt.
	Reset(ctx context.Context) error

	// Close releases the driver entirely.
	Close(ctx context.Context) error
}

// ChallengeKind identifies the kind of automated-traffic verification
// challenge DetectChallenge found.
type ChallengeKind int

const (
	ChallengeNone ChallengeKind = iota
	ChallengePressAndHold
	ChallengeCheckbox
	ChallengeIframe
)

// ExtractionMode distinguishes the single-product and catalog-page
// screenshot/navigation policies (spec §4.4 steps 4-5).
type ExtractionMode int

const (
	ModeSingleProduct ExtractionMode = iota
	ModeCatalog
)
