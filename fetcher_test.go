package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestContentFetcherFetch(t *testing.T) {
	const url = "https://example.com/page"

	scraper := &stubScraper{
		responses: map[string]*ScrapeResponse{
			url: {Success: true, Markdown: "# Page\n\nBody", Description: "Summary"},
		},
	}
	fetcher := NewContentFetcher(scraper)
	fetcher.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 45, 0, time.FixedZone("EEST", 3*60*60))
	}

	outcome := fetcher.Fetch(context.Background(), url)
	if !outcome.OK() {
		t.Fatalf("Fetch() failed: %v", outcome.Err)
	}

	result := outcome.Result
	if result.Title != "Untitled" {
		t.Errorf("Title = %q, want Untitled", result.Title)
	}
	if result.Timestamp != "2024-05-01T09:30:45.000Z" {
		t.Errorf("Timestamp = %q, want UTC with milliseconds", result.Timestamp)
	}
	if result.URL != url {
		t.Errorf("URL = %q, want %q", result.URL, url)
	}
	if result.Description != "Summary" {
		t.Errorf("Description = %q, want Summary", result.Description)
	}
	if result.Markdown != "# Page\n\nBody" {
		t.Errorf("Markdown = %q", result.Markdown)
	}
}

func TestContentFetcherFailures(t *testing.T) {
	const url = "https://example.com/fail"

	tests := []struct {
		name     string
		scraper  *stubScraper
		contains string
	}{
		{
			name:     "transport error",
			scraper:  &stubScraper{errs: map[string]error{url: errors.New("connection refused")}},
			contains: "connection refused",
		},
		{
			name:     "http status",
			scraper:  &stubScraper{errs: map[string]error{url: &HTTPError{StatusCode: 429, URL: url}}},
			contains: "HTTP 429",
		},
		{
			name:     "provider reported failure",
			scraper:  &stubScraper{responses: map[string]*ScrapeResponse{url: {Success: false, Error: "quota exceeded"}}},
			contains: "quota exceeded",
		},
		{
			name:     "failure without message",
			scraper:  &stubScraper{responses: map[string]*ScrapeResponse{url: {Success: false}}},
			contains: "unknown scraping error",
		},
		{
			name:     "no response",
			scraper:  &stubScraper{responses: map[string]*ScrapeResponse{url: nil}},
			contains: "unknown scraping error",
		},
		{
			name:     "empty markdown",
			scraper:  &stubScraper{responses: map[string]*ScrapeResponse{url: {Success: true, Title: "Empty"}}},
			contains: "no markdown content returned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := NewContentFetcher(tt.scraper).Fetch(context.Background(), url)
			if outcome.OK() {
				t.Fatal("Fetch() succeeded, want failure")
			}
			if outcome.Result != nil {
				t.Error("failed Fetch() returned a result")
			}
			if outcome.Err.URL != url {
				t.Errorf("ScrapingError.URL = %q, want %q", outcome.Err.URL, url)
			}
			if !strings.Contains(outcome.Err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", outcome.Err.Error(), tt.contains)
			}
			if len(tt.scraper.calls) != 1 {
				t.Errorf("scraper called %d times, want a single attempt", len(tt.scraper.calls))
			}
		})
	}
}

func TestScrapingErrorUnwrap(t *testing.T) {
	httpErr := &HTTPError{StatusCode: 503, URL: "https://example.com"}
	outcome := failedFetch("https://example.com", httpErr)

	var target *HTTPError
	if !errors.As(outcome.Err, &target) || target.StatusCode != 503 {
		t.Errorf("errors.As() did not reach the HTTPError inside %v", outcome.Err)
	}
}

func TestNewScraper(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		selector string
		wantName string
		wantErr  bool
	}{
		{"firecrawl without key", providerFirecrawl, "", "", "", true},
		{"firecrawl with key", providerFirecrawl, "fc-test", "", providerFirecrawl, false},
		{"direct without key", providerDirect, "", "", providerDirect, false},
		{"direct with selector", providerDirect, "", "main article", providerDirect, false},
		{"direct with invalid selector", providerDirect, "", "[[", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Provider.Name = tt.provider
			settings.Provider.ContentSelector = tt.selector

			scraper, err := NewScraper(&Config{Settings: settings, APIKey: tt.apiKey})
			if tt.wantErr {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("NewScraper() error = %v, want ConfigurationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewScraper() error = %v", err)
			}
			if scraper.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", scraper.Name(), tt.wantName)
			}
		})
	}
}

func TestRunResultRecord(t *testing.T) {
	var results RunResult
	results.Record(ProcessingResult{URL: "a", Status: StatusSuccess})
	results.Record(ProcessingResult{URL: "b", Status: StatusSkipped})
	results.Record(ProcessingResult{URL: "c", Status: StatusError, Error: errors.New("boom")})
	results.Record(ProcessingResult{URL: "d", Status: StatusError})

	if results.Processed != 4 || results.Successful != 1 || results.Skipped != 1 || results.Failed != 2 {
		t.Errorf("counters = %+v", results)
	}
	expected := []URLError{{URL: "c", Message: "boom"}, {URL: "d", Message: "unknown error"}}
	if len(results.Errors) != 2 || results.Errors[0] != expected[0] || results.Errors[1] != expected[1] {
		t.Errorf("Errors = %+v, want %+v", results.Errors, expected)
	}
}
