package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
)

// catalogLineSentinel prefixes every product line the catalog prompt
// asks the LLM to emit.
const catalogLineSentinel = "PRODUCT|"

func containsCatalogSentinel(reply string) bool {
	return strings.Contains(reply, catalogLineSentinel)
}

// parseCatalogLines turns the cascade's pipe-delimited reply into
// CatalogProduct rows (spec §4.3). A line missing its url or its title is
// dropped rather than surfaced as an error — one malformed row in an
// otherwise good catalog page shouldn't fail the whole extraction.
func parseCatalogLines(reply string, cfg *retailer.Config) []result.CatalogProduct {
	var products []result.CatalogProduct

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, catalogLineSentinel) {
			continue
		}
		line = strings.TrimPrefix(line, catalogLineSentinel)

		fields := parseCatalogFields(line)
		url := fields["url"]
		title := fields["title"]
		if url == "" || title == "" {
			continue
		}

		p := result.CatalogProduct{
			URL:         url,
			Title:       title,
			ImageURL:    fields["image"],
			ProductCode: fields["code"],
		}
		if price, ok := parsePriceCents(fields["price"]); ok {
			p.PriceCents = price
		}
		if onSale, ok := fields["on_sale"]; ok {
			p.OnSale = onSale == "true" || onSale == "1" || onSale == "yes"
		}
		if p.ProductCode == "" && cfg != nil && cfg.ProductCodePattern != "" {
			p.ProductCode = extractProductCode(url, cfg.ProductCodePattern)
		}

		products = append(products, p)
	}

	return products
}

func parseCatalogFields(line string) map[string]string {
	fields := make(map[string]string)
	for _, segment := range strings.Split(line, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return fields
}

// parsePriceCents accepts "19.99", "$19.99", or "1999" and returns the
// integer cent value.
func parsePriceCents(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimLeft(raw, "$₩€£")
	raw = strings.ReplaceAll(raw, ",", "")

	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		whole, frac := raw[:dot], raw[dot+1:]
		if len(frac) == 1 {
			frac += "0"
		} else if len(frac) > 2 {
			frac = frac[:2]
		}
		wholeVal, err1 := strconv.ParseInt(whole, 10, 64)
		fracVal, err2 := strconv.ParseInt(frac, 10, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return wholeVal*100 + fracVal, true
	}

	whole, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return whole * 100, true
}

func extractProductCode(url, pattern string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	if idx := re.SubexpIndex("code"); idx > 0 && idx < len(m) {
		return m[idx]
	}
	if len(m) > 1 {
		return m[1]
	}
	return ""
}
