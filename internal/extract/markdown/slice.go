package markdown

import "strings"

// productGridMarkers are the markdown tokens most likely to mark the
// start of a product grid or a product's own detail block once a page
// has been converted to markdown — headings, image embeds, and price
// signs cluster tightly around the content worth sending to the LLM.
var productGridMarkers = []string{"##", "![", "$", "₩", "USD", "price"}

// charsPerToken approximates the characters-per-token ratio for English
// and mixed-script retail copy; it only needs to be good enough to keep
// the slice in the right order of magnitude, not exact.
const charsPerToken = 4

// sliceMarkdown trims body down to roughly maxTokens tokens, centering
// the window on the first occurrence of any marker so the part of the
// page most likely to hold product data survives the cut (spec §4.3).
// A body already under budget is returned unchanged.
func sliceMarkdown(body string, maxTokens int, markers []string) string {
	if maxTokens <= 0 {
		return body
	}
	budget := maxTokens * charsPerToken
	if len(body) <= budget {
		return body
	}

	center := firstMarkerIndex(body, markers)
	if center < 0 {
		center = 0
	}

	half := budget / 2
	start := center - half
	if start < 0 {
		start = 0
	}
	end := start + budget
	if end > len(body) {
		end = len(body)
		start = end - budget
		if start < 0 {
			start = 0
		}
	}

	return body[start:end]
}

func firstMarkerIndex(body string, markers []string) int {
	best := -1
	for _, m := range markers {
		if m == "" {
			continue
		}
		if idx := strings.Index(body, m); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
