package browser

import (
	"encoding/json"

	"github.com/catalogwatcher/catalog-watcher/internal/extract/jsonrepair"
)

// visionSingleProductReply mirrors the JSON object the single-product
// vision prompt asks for.
type visionSingleProductReply struct {
	Title         string   `json:"title"`
	Brand         string   `json:"brand"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"original_price"`
	Description   string   `json:"description"`
	StockState    string   `json:"stock_state"`
	OnSale        bool     `json:"on_sale"`
	Category      string   `json:"category"`
	ImageURLs     []string `json:"image_urls"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
	Material      string   `json:"material"`
	CareNotes     string   `json:"care_notes"`
	Neckline      string   `json:"neckline"`
	SleeveLength  string   `json:"sleeve_length"`
}

// visionHintReply mirrors the DOM-hint secondary pass's reply: each
// element type mapped to a ranked list of candidate CSS selectors.
type visionHintReply struct {
	ProductLink      []string `json:"product_link"`
	Title            []string `json:"title"`
	Price            []string `json:"price"`
	Image            []string `json:"image"`
	Description      []string `json:"description"`
	PaginationNext   []string `json:"pagination_next"`
	LoadMoreButton   []string `json:"load_more_button"`
}

// visionCatalogCardWire is the raw wire shape of one catalog card in the
// vision model's reply, before its price string is converted to cents.
type visionCatalogCardWire struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	OnSale   bool   `json:"on_sale"`
}

type visionCatalogReplyWire struct {
	Products []visionCatalogCardWire `json:"products"`
}

func decodeWithRepair(reply string, out interface{}) error {
	body := jsonrepair.ExtractObject(reply)
	if err := json.Unmarshal([]byte(body), out); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(jsonrepair.Repair(body)), out)
}

func parseVisionSingleProduct(reply string) (*visionSingleProductReply, error) {
	var parsed visionSingleProductReply
	if err := decodeWithRepair(reply, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseVisionHints(reply string) (*visionHintReply, error) {
	var parsed visionHintReply
	if err := decodeWithRepair(reply, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseVisionCatalog(reply string) (*visionCatalogReply, error) {
	var wire visionCatalogReplyWire
	if err := decodeWithRepair(reply, &wire); err != nil {
		return nil, err
	}

	cards := make([]visionCatalogCard, 0, len(wire.Products))
	for _, w := range wire.Products {
		priceCents, _ := parsePriceFromText(w.Price)
		cards = append(cards, visionCatalogCard{
			Title:      w.Title,
			PriceCents: priceCents,
			ImageURL:   w.ImageURL,
			OnSale:     w.OnSale,
		})
	}
	return &visionCatalogReply{Products: cards}, nil
}
