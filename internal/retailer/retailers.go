package retailer

// This file holds the static set of retailers the pipeline monitors.
// All of them are registered from the one init() below, mirroring the provider
// registry's "fail fast at startup" idiom: a malformed entry here panics
// before any crawl starts rather than surfacing as a runtime crawl error.
//
// The set below is illustrative rather than exhaustive (spec §4.6): it
// covers every PaginationMode, Tower and AntiBotSeverity value the
// Crawler and Dispatcher must handle (each value at least once, not every
// combination), not a specific production retailer roster.

func init() {
	Register(&Config{
		ID: "northfield",
		CategoryListingURLs: map[string]string{
			"dresses": "https://www.northfield.example.com/c/dresses",
			"shoes":   "https://www.northfield.example.com/c/shoes",
		},
		CategoryNewestSortURLs: map[string]string{
			"dresses": "https://www.northfield.example.com/c/dresses?sortBy=newest",
			"shoes":   "https://www.northfield.example.com/c/shoes?sortBy=newest",
		},
		Pagination:         PaginationPaged,
		ItemsPerPage:       60,
		PreferredTower:     TowerMarkdown,
		AntiBot:            AntiBotLow,
		ProductCodePattern: `/p/(?P<code>[A-Z0-9]{6,12})(?:/|$)`,
		TrackingQueryKeys:  []string{"navsrc", "origin"},
		ImageCDNHost:       "img.northfield.example.com",
	})

	Register(&Config{
		ID: "verdalane",
		CategoryListingURLs: map[string]string{
			"outerwear": "https://shop.verdalane.example.com/outerwear",
			"knitwear":  "https://shop.verdalane.example.com/knitwear",
		},
		Pagination:         PaginationOffset,
		PreferredTower:     TowerMarkdown,
		AntiBot:            AntiBotMedium,
		ProductCodePattern: `[?&]sku=(?P<code>[0-9]+)`,
		TrackingQueryKeys:  []string{"currentpricerange", "utm_source", "utm_medium"},
	})

	Register(&Config{
		ID: "mirelcourt",
		CategoryListingURLs: map[string]string{
			"denim": "https://mirelcourt.example.com/denim",
		},
		Pagination:             PaginationInfiniteScroll,
		PreferredTower:         TowerBrowser,
		AntiBot:                AntiBotHigh,
		ProductCodePattern:     `/item-(?P<code>[a-f0-9]{8})\.html`,
		DropsEntireQueryString: true,
	})

	Register(&Config{
		ID: "halewick",
		CategoryListingURLs: map[string]string{
			"activewear": "https://www.halewick.example.com/activewear",
			"swimwear":   "https://www.halewick.example.com/swimwear",
		},
		CategoryNewestSortURLs: map[string]string{
			"activewear": "https://www.halewick.example.com/activewear?sort=new",
		},
		Pagination:         PaginationHybridLoadMore,
		ItemsPerPage:       48,
		PreferredTower:     TowerBrowser,
		AntiBot:            AntiBotVeryHigh,
		ProductCodePattern: `/style/(?P<code>\d{5,8})`,
		TrackingQueryKeys:  []string{"sort", "navsrc"},
	})
}
