package crawler

import (
	"math/rand/v2"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

// pacingWindow is the [min, max) sleep range between page requests for a
// given anti-bot severity (spec §4.6 step 4: "≈1.5–3 seconds for
// medium-anti-bot retailers... for very-high-anti-bot retailers the
// sleep widens further").
func pacingWindow(severity retailer.AntiBotSeverity) (time.Duration, time.Duration) {
	switch severity {
	case retailer.AntiBotLow:
		return 500 * time.Millisecond, 1200 * time.Millisecond
	case retailer.AntiBotMedium:
		return 1500 * time.Millisecond, 3000 * time.Millisecond
	case retailer.AntiBotHigh:
		return 3000 * time.Millisecond, 6000 * time.Millisecond
	case retailer.AntiBotVeryHigh:
		return 6000 * time.Millisecond, 12000 * time.Millisecond
	default:
		return 1000 * time.Millisecond, 2000 * time.Millisecond
	}
}

// jitteredPacingDelay picks a uniformly random delay within severity's
// pacing window.
func jitteredPacingDelay(severity retailer.AntiBotSeverity) time.Duration {
	lo, hi := pacingWindow(severity)
	if hi <= lo {
		return lo
	}
	spread := hi - lo
	return lo + time.Duration(rand.Int64N(int64(spread)))
}
