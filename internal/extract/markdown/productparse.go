package markdown

import (
	"encoding/json"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/jsonrepair"
	"github.com/catalogwatcher/catalog-watcher/internal/extract/result"
)

// singleProductReply mirrors the JSON object the single-product prompt
// asks the LLM to emit.
type singleProductReply struct {
	Title            string   `json:"title"`
	Brand            string   `json:"brand"`
	Price            string   `json:"price"`
	OriginalPrice    string   `json:"original_price"`
	Description      string   `json:"description"`
	StockState       string   `json:"stock_state"`
	OnSale           bool     `json:"on_sale"`
	Category         string   `json:"category"`
	ImageURLs        []string `json:"image_urls"`
	Colors           []string `json:"colors"`
	Sizes            []string `json:"sizes"`
	Material         string   `json:"material"`
	CareNotes        string   `json:"care_notes"`
	Neckline         string   `json:"neckline"`
	SleeveLength     string   `json:"sleeve_length"`
}

// parseSingleProductJSON decodes reply as the single-product JSON shape;
// if that fails it runs one repair pass (spec §4.3's "parse with repair")
// and decodes once more.
func parseSingleProductJSON(reply string) (*singleProductReply, error) {
	body := jsonrepair.ExtractObject(reply)

	var parsed singleProductReply
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return &parsed, nil
	}

	repaired := jsonrepair.Repair(body)
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// toProductResult maps the decoded reply onto the uniform Product
// result shape, coercing the price strings to integer cents.
func (r *singleProductReply) toProductResult(url, canonicalURL string, elapsed time.Duration) *result.Product {
	p := &result.Product{
		URL:          url,
		CanonicalURL: canonicalURL,
		Title:        r.Title,
		Brand:        r.Brand,
		Currency:     "USD",
		OnSale:       r.OnSale,
		StockState:   r.StockState,
		Category:     r.Category,
		ImageURLs:    r.ImageURLs,
		Description:  r.Description,
		Neckline:     r.Neckline,
		SleeveLength: r.SleeveLength,
		Colors:       r.Colors,
		Sizes:        r.Sizes,
		Material:     r.Material,
		CareNotes:    r.CareNotes,
		Method:       result.MethodMarkdown,
		Elapsed:      elapsed,
	}

	if price, ok := parsePriceCents(r.Price); ok {
		p.PriceCents = price
	}
	if orig, ok := parsePriceCents(r.OriginalPrice); ok {
		p.OriginalPriceCents = &orig
	}
	if p.StockState == "" {
		p.StockState = "in_stock"
	}

	return p
}
