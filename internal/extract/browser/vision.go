package browser

import (
	"context"
	"fmt"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const (
	visionTemperature         = 0.1
	visionSingleProductCeiling = 1500
	visionHintCeiling          = 800
	visionCatalogCeiling       = 6000
)

// VisionClient abstracts the single out-of-scope vision-model provider
// (spec §1). It is deliberately narrower than LLMClient: screenshots
// accompany the prompt rather than just text.
type VisionClient interface {
	Name() string

	// Complete sends prompt together with images and returns the raw
	// completion body.
	Complete(ctx context.Context, prompt string, images []Screenshot, maxOutputTokens int) (string, error)
}

func callVision(ctx context.Context, client VisionClient, prompt string, images []Screenshot, maxOutputTokens int) (string, error) {
	if client == nil {
		return "", errUnimplementedVisionCall
	}
	reply, err := client.Complete(ctx, prompt, images, maxOutputTokens)
	if err != nil {
		applog.WithComponent(visionComponent).WithError(err).
			WithField("provider", client.Name()).Warn("vision model call failed")
		return "", apperrors.Wrap(err, apperrors.TransientNetwork, "vision model call failed")
	}
	return reply, nil
}

const visionComponent = "extract.browser"

func singleProductVisionPrompt() string {
	return `Examine the attached screenshots of a single retail product page. Reply
with a strict JSON object with keys: title, brand, price, original_price,
description, stock_state, on_sale, category, image_urls, colors, sizes,
material, care_notes, neckline, sleeve_length. Omit a key only when truly
absent. Respond with JSON only, no commentary.`
}

// domHintPrompt asks the vision model to guess CSS selectors for each
// element type — the secondary path's output feeds the tertiary guided
// DOM query as a fallback ahead of the generic selector list.
func domHintPrompt() string {
	return `Examine the attached screenshot and propose likely CSS selectors for
each of: product_link, title, price, image, description, pagination_next,
load_more_button. Reply with a strict JSON object mapping each key to an
array of candidate CSS selectors, most likely first. Respond with JSON
only, no commentary.`
}

func catalogVisionPrompt() string {
	return `Examine the attached full-page screenshot of a retail catalog listing.
List every visible product card. Reply with a strict JSON object with a
single key "products", an array of objects each with keys: title, price,
image_url, on_sale. Respond with JSON only, no commentary.`
}

func fmtChallenge(kind ChallengeKind) string {
	switch kind {
	case ChallengePressAndHold:
		return "press_and_hold"
	case ChallengeCheckbox:
		return "checkbox"
	case ChallengeIframe:
		return "iframe"
	default:
		return fmt.Sprintf("unknown(%d)", int(kind))
	}
}
