package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/catalogwatcher/catalog-watcher/internal/changedetect"
)

// batchURLEntry is one row of a batch file's urls array (spec §6).
type batchURLEntry struct {
	URL            string `json:"url"`
	Retailer       string `json:"retailer"`
	DiscoveredDate string `json:"discovered_date"`
	CatalogSource  string `json:"catalog_source"`
}

// batchFile is the downstream publisher hand-off document (spec §6): one
// file per (retailer, category) pair that produced new products, named
// deterministically from the run ID, retailer, and category.
type batchFile struct {
	BatchName   string          `json:"batch_name"`
	CreatedDate string          `json:"created_date"`
	TotalURLs   int             `json:"total_urls"`
	Source      string          `json:"source"`
	URLs        []batchURLEntry `json:"urls"`
}

const batchFileSource = "catalog_monitoring"

// writeBatchFile writes batch's New products to outputDir and returns
// the path written. It is a no-op (empty path, nil error) when outputDir
// is empty or batch has no new products.
func (o *Orchestrator) writeBatchFile(outputDir string, runID int64, pair Pair, batch *changedetect.BatchResult) (string, error) {
	if outputDir == "" || batch == nil || len(batch.New) == 0 {
		return "", nil
	}

	now := time.Now().UTC()
	createdDate := now.Format("2006-01-02")
	name := fmt.Sprintf("run-%d-%s-%s.json", runID, sanitizeForFilename(pair.Retailer), sanitizeForFilename(pair.Category))

	entries := make([]batchURLEntry, 0, len(batch.New))
	for _, m := range batch.New {
		entries = append(entries, batchURLEntry{
			URL:            m.Product.URL,
			Retailer:       pair.Retailer,
			DiscoveredDate: createdDate,
			CatalogSource:  pair.Category,
		})
	}

	file := batchFile{
		BatchName:   name,
		CreatedDate: createdDate,
		TotalURLs:   len(entries),
		Source:      batchFileSource,
		URLs:        entries,
	}

	payload, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeForFilename(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
}
