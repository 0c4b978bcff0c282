package browser

import (
	"context"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// StubDriver is an in-process Driver that never launches a real browser.
// No headless-browser automation library appears anywhere in this
// repository's dependency corpus, so the real Driver this package is
// built to host is an out-of-scope external collaborator (spec §1) —
// the same way the two LLM/vision providers are for the Markdown
// Extractor. StubDriver exists so the Extractor's navigation, retry,
// and dual-extraction orchestration can be built, wired, and tested
// now, with a production Driver implementation swapped in later
// without touching anything in this package but New's caller.
//
// Its Navigate always succeeds immediately; Screenshot returns a single
// 1x1 placeholder image; HTML returns whatever FixedHTML was set to.
// Tests and callers that need specific behavior should set the
// exported fields directly.
type StubDriver struct {
	FixedHTML string
	FixedURL  string
	Challenge ChallengeKind
}

var _ Driver = (*StubDriver)(nil)

func NewStubDriver() *StubDriver {
	return &StubDriver{}
}

func (d *StubDriver) Navigate(_ context.Context, url string, _ NavigateOptions) error {
	if d.FixedURL == "" {
		d.FixedURL = url
	}
	return nil
}

func (d *StubDriver) DismissOverlays(_ context.Context, _ []string) (int, error) {
	return 0, nil
}

func (d *StubDriver) DetectChallenge(_ context.Context) (ChallengeKind, bool, error) {
	if d.Challenge == ChallengeNone {
		return ChallengeNone, false, nil
	}
	return d.Challenge, true, nil
}

func (d *StubDriver) HandleChallenge(_ context.Context, _ ChallengeKind) error {
	d.Challenge = ChallengeNone
	return nil
}

func (d *StubDriver) Screenshot(_ context.Context, mode ExtractionMode) ([]Screenshot, error) {
	placeholder := Screenshot{Label: "full_page", PNG: []byte{0x89, 'P', 'N', 'G'}, Width: 1, Height: 1}
	if mode == ModeCatalog {
		return []Screenshot{placeholder}, nil
	}
	return []Screenshot{placeholder}, nil
}

func (d *StubDriver) HTML(_ context.Context) (string, error) {
	return d.FixedHTML, nil
}

func (d *StubDriver) CurrentURL(_ context.Context) (string, error) {
	return d.FixedURL, nil
}

func (d *StubDriver) Reset(_ context.Context) error {
	return nil
}

func (d *StubDriver) Close(_ context.Context) error {
	return nil
}

// errUnimplementedVisionCall is returned by callVision when the Extractor
// has no VisionClient configured.
var errUnimplementedVisionCall = apperrors.New(apperrors.Unavailable, "no vision client configured")
