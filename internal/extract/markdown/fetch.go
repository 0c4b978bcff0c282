package markdown

import (
	"context"
	"io"
	"net/http"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/internal/retailer"
	"github.com/catalogwatcher/catalog-watcher/internal/store"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const fetchComponent = "extract.markdown"

// fetchMarkdown returns the markdown body for url, serving from the
// store's cache when fresh and falling back to the conversion service
// otherwise (spec §4.3). The returned canonical URL reflects any
// redirect the conversion service followed.
func (e *Extractor) fetchMarkdown(ctx context.Context, cfg *retailer.Config, url string) (string, string, error) {
	if e.cfg.CacheTTL > 0 && e.store != nil {
		if cached, err := e.store.GetMarkdownCacheEntry(ctx, url, e.cfg.CacheTTL); err == nil {
			return cached.Body, cached.CanonicalURL, nil
		} else if apperrors.GetType(err) != apperrors.NotFound {
			applog.WithComponent(fetchComponent).WithError(err).Warn("markdown cache lookup failed, falling through to live fetch")
		}
	}

	body, canonicalURL, err := e.convertToMarkdown(ctx, url)
	if err != nil {
		return "", "", err
	}

	if e.cfg.CacheTTL > 0 && e.store != nil {
		entry := &store.MarkdownCacheEntry{URL: url, CanonicalURL: canonicalURL, Body: body, CapturedAt: time.Now().UTC()}
		if err := e.store.PutMarkdownCacheEntry(ctx, entry); err != nil {
			applog.WithComponent(fetchComponent).WithError(err).Warn("failed to persist markdown cache entry")
		}
	}

	return body, canonicalURL, nil
}

// convertToMarkdown calls the external markdown-conversion service
// (spec §1's out-of-scope collaborator) and returns its body verbatim
// along with whatever canonical URL it reports for the page.
func (e *Extractor) convertToMarkdown(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.ServiceURL, nil)
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.Internal, "build markdown conversion request")
	}
	q := req.URL.Query()
	q.Set("url", url)
	req.URL.RawQuery = q.Encode()
	if e.cfg.ServiceAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.ServiceAuthToken)
	}

	resp, err := e.fetcher.Do(req)
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.TransientNetwork, "markdown conversion request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.TransientNetwork, "read markdown conversion body")
	}

	canonicalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		canonicalURL = resp.Request.URL.String()
	}
	return string(raw), canonicalURL, nil
}

// probeDelisted issues a lightweight HEAD request ahead of the full
// fetch-and-convert path; a 404/410 is treated as a delisting signature
// (spec §4.3) without spending an LLM call on it.
func (e *Extractor) probeDelisted(ctx context.Context, url string) (bool, error) {
	probeCtx := ctx
	if e.cfg.DelistingProbeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, e.cfg.DelistingProbeTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.Internal, "build delisting probe request")
	}

	resp, err := e.fetcher.Do(req)
	if err != nil {
		// A failed probe is not itself evidence of delisting — the caller
		// proceeds to the full fetch, which will surface the real error.
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone, nil
}
