package markdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const (
	llmTemperature              = 0.1
	singleProductOutputCeiling  = 1500
	catalogOutputCeiling        = 6000
)

// LLMClient abstracts one completion provider. Implementations wrap a
// specific remote endpoint (the two LLM providers are out-of-scope
// external collaborators per spec §1); the cascade only needs this
// narrow surface.
type LLMClient interface {
	// Name identifies the provider for logging and the result's
	// method-used field.
	Name() string

	// Complete sends prompt at the given temperature and returns the raw
	// completion body, truncated by the caller's maxOutputTokens ceiling.
	Complete(ctx context.Context, prompt string, temperature float64, maxOutputTokens int) (string, error)
}

// runCascade tries each client in order, returning the first response
// that is both obtainable and shaped like valid output (spec §4.3: "if
// the primary is unavailable or returns an unparseable body, fall back
// to a secondary provider"). looksParseable is a cheap shape check, not
// a full parse — the caller still runs its own parse-with-repair pass.
func runCascade(ctx context.Context, cascade []LLMClient, prompt string, maxOutputTokens int) (string, string, error) {
	var lastErr error

	for _, client := range cascade {
		reply, err := client.Complete(ctx, prompt, llmTemperature, maxOutputTokens)
		if err != nil {
			applog.WithComponent("extract.markdown").WithError(err).
				WithField("provider", client.Name()).Warn("LLM provider unavailable, trying next in cascade")
			lastErr = err
			continue
		}
		if !looksParseable(reply) {
			applog.WithComponent("extract.markdown").
				WithField("provider", client.Name()).Warn("LLM reply not shaped like expected output, trying next in cascade")
			lastErr = apperrors.New(apperrors.ParsingFailed, fmt.Sprintf("provider %s returned an unparseable body", client.Name()))
			continue
		}
		return reply, client.Name(), nil
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.ExecutionFailed, "no LLM providers configured")
	}
	return "", "", lastErr
}

// looksParseable is a minimal shape check run before committing to the
// full repair-then-decode pass: a catalog reply must contain at least
// one sentinel-prefixed line, a single-product reply must at least have
// a "title" field gjson can pull out without a strict decode (tolerant
// of the trailing commas and stray prose a raw json.Unmarshal would
// reject outright).
func looksParseable(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	if trimmed[0] == '{' {
		return gjson.Get(trimmed, "title").Exists()
	}
	return containsCatalogSentinel(reply)
}

func singleProductPrompt(markdown string) string {
	return fmt.Sprintf(singleProductPromptTemplate, markdown)
}

func catalogPrompt(markdown string) string {
	return fmt.Sprintf(catalogPromptTemplate, markdown)
}

const singleProductPromptTemplate = `Extract the single product described in the following page markdown as a
strict JSON object with keys: title, brand, price, original_price,
description, stock_state, on_sale, category, image_urls, colors, sizes,
material, care_notes, neckline, sleeve_length. Omit a key only when
truly absent. Respond with JSON only, no commentary.

%s`

const catalogPromptTemplate = `List every product visible in the following catalog page markdown. Emit
one line per product, starting with the sentinel "PRODUCT|" followed by
pipe-separated KEY=value segments (url, title, price, code, image,
on_sale). Omit a segment only when truly absent. Respond with the lines
only, no commentary.

%s`
