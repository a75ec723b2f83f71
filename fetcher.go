package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ScrapeResponse is the provider-neutral answer to a scrape request
type ScrapeResponse struct {
	Success     bool
	Markdown    string
	Title       string
	Description string
	Error       string
}

// Scraper converts one URL into markdown plus metadata
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, url string) (*ScrapeResponse, error)
}

// NewScraper builds the provider selected in the settings. Providers that
// need a credential fail here, before any network activity.
func NewScraper(cfg *Config) (Scraper, error) {
	if err := cfg.RequireCredential(); err != nil {
		return nil, err
	}

	provider := cfg.Settings.Provider
	client := &http.Client{Timeout: provider.Timeout}

	switch provider.Name {
	case providerFirecrawl:
		return NewFirecrawlClient(provider.BaseURL, cfg.APIKey, provider.OnlyMainContent, client), nil
	case providerDirect:
		return NewDirectScraper(client, provider.ContentSelector)
	default:
		return nil, configErrorf("unknown provider %q", provider.Name)
	}
}

// ContentFetcher handles fetching content through a scraping provider
type ContentFetcher struct {
	scraper Scraper
	now     func() time.Time
}

// NewContentFetcher creates a new content fetcher for the given provider
func NewContentFetcher(scraper Scraper) *ContentFetcher {
	return &ContentFetcher{
		scraper: scraper,
		now:     time.Now,
	}
}

// Fetch makes a single attempt to convert url. Every failure, whatever its
// origin, is returned as a ScrapingError in the outcome.
func (f *ContentFetcher) Fetch(ctx context.Context, url string) FetchOutcome {
	log.Printf("  → Scraping: %s", url)

	resp, err := f.scraper.Scrape(ctx, url)
	if err != nil {
		return failedFetch(url, err)
	}
	if resp == nil || !resp.Success {
		msg := "unknown scraping error"
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		return failedFetch(url, errors.New(msg))
	}
	if resp.Markdown == "" {
		return failedFetch(url, errors.New("no markdown content returned"))
	}

	title := resp.Title
	if title == "" {
		title = "Untitled"
	}

	return FetchOutcome{
		Result: &FetchResult{
			Markdown:    resp.Markdown,
			Title:       title,
			Description: resp.Description,
			URL:         url,
			Timestamp:   f.now().UTC().Format(timestampLayout),
		},
	}
}

func failedFetch(url string, err error) FetchOutcome {
	debugLog("scrape of %s failed: %v", url, err)
	return FetchOutcome{Err: &ScrapingError{URL: url, Err: err}}
}
