package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	nurl "net/url"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DocumentProcessor handles the main ingestion workflow
type DocumentProcessor struct {
	store        *FileStore
	fetcher      *ContentFetcher
	worklistPath string
	delay        time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	ingested     map[string]struct{}
}

// NewDocumentProcessor creates a processor over the given store and fetcher
func NewDocumentProcessor(settings *Settings, store *FileStore, fetcher *ContentFetcher) *DocumentProcessor {
	return &DocumentProcessor{
		store:        store,
		fetcher:      fetcher,
		worklistPath: settings.WorklistFile,
		delay:        settings.RateLimit,
		sleep:        sleepContext,
		ingested:     make(map[string]struct{}),
	}
}

// Run loads the worklist and processes every URL not yet ingested
func (p *DocumentProcessor) Run(ctx context.Context) (*RunResult, error) {
	entries, err := p.LoadWorklist()
	if err != nil {
		return nil, err
	}
	return p.ProcessURLs(ctx, entries)
}

// LoadWorklist reads the worklist file. A missing, malformed or empty list is
// a configuration error.
func (p *DocumentProcessor) LoadWorklist() ([]any, error) {
	entries := p.store.LoadList(p.worklistPath, nil)
	if len(entries) == 0 {
		return nil, configErrorf("no URLs found in %s", p.worklistPath)
	}
	return entries, nil
}

// ProcessURLs validates the worklist, then processes the URLs missing from
// the output directory one at a time, pausing between requests
func (p *DocumentProcessor) ProcessURLs(ctx context.Context, entries []any) (*RunResult, error) {
	if len(entries) == 0 {
		return nil, configErrorf("no URLs found in %s", p.worklistPath)
	}

	urls, err := ValidateWorklist(entries)
	if err != nil {
		return nil, err
	}

	if err := p.store.EnsureDirectory(p.store.OutputDir()); err != nil {
		return nil, err
	}
	p.ingested = p.store.CollectIngestedURLs()

	results := &RunResult{Total: len(urls)}
	log.Printf("📊 Total URLs: %d", results.Total)
	log.Printf("📊 Already scraped: %d", len(p.ingested))

	toProcess := make([]string, 0, len(urls))
	for _, url := range urls {
		if _, done := p.ingested[url]; done {
			results.Skipped++
			continue
		}
		toProcess = append(toProcess, url)
	}
	log.Printf("📊 URLs to process: %d", len(toProcess))

	if len(toProcess) == 0 {
		log.Printf("✨ All URLs have already been scraped!")
		return results, nil
	}

	for i, url := range toProcess {
		if i > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return results, fmt.Errorf("waiting between requests: %w", err)
			}
		}

		log.Printf("[%d/%d] Processing: %s", i+1, len(toProcess), url)
		result, err := p.ProcessURL(ctx, url)
		if err != nil {
			return results, err
		}
		results.Record(result)

		switch result.Status {
		case StatusSuccess:
			log.Printf("✓ Saved: %s", result.Filename)
		case StatusError:
			log.Printf("✗ Failed %s: %v", result.URL, result.Error)
		}
	}

	return results, nil
}

// ProcessURL fetches and stores a single URL. Fetch failures are reported in
// the result; the returned error is reserved for write failures, which end
// the run.
func (p *DocumentProcessor) ProcessURL(ctx context.Context, url string) (ProcessingResult, error) {
	if _, done := p.ingested[url]; done {
		log.Printf("⏭  Skipping already scraped: %s", url)
		return ProcessingResult{URL: url, Status: StatusSkipped}, nil
	}

	outcome := p.fetcher.Fetch(ctx, url)
	if !outcome.OK() {
		return ProcessingResult{URL: url, Status: StatusError, Error: outcome.Err}, nil
	}

	filename := p.store.DeriveFilename(url)
	if _, err := p.store.WriteRecord(filename, createRecordContent(outcome.Result)); err != nil {
		return ProcessingResult{URL: url, Status: StatusError, Error: err}, fmt.Errorf("saving %s: %w", url, err)
	}
	p.ingested[url] = struct{}{}

	return ProcessingResult{
		URL:      url,
		Status:   StatusSuccess,
		Filename: filename,
	}, nil
}

// createRecordContent renders the frontmatter followed by the markdown body
func createRecordContent(result *FetchResult) string {
	return EncodeRecord(RecordHeader{
		URL:         result.URL,
		Title:       result.Title,
		ScrapedAt:   result.Timestamp,
		Description: result.Description,
	}, result.Markdown)
}

// ValidateWorklist checks that every entry is an absolute URL string. The
// first bad entry fails the whole list.
func ValidateWorklist(entries []any) ([]string, error) {
	urls := make([]string, 0, len(entries))
	for i, entry := range entries {
		url, ok := entry.(string)
		if !ok {
			return nil, &ValidationError{Index: i, Value: entry, Reason: "must be a string"}
		}
		if err := validation.Validate(url, validation.Required, validation.By(absoluteURL)); err != nil {
			return nil, &ValidationError{Index: i, Value: url, Reason: err.Error()}
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// AddURLs appends urls to the worklist file, skipping entries already listed.
// It returns the number of URLs added.
func AddURLs(store *FileStore, worklistPath string, urls []string) (int, error) {
	entries := make([]any, len(urls))
	for i, url := range urls {
		entries[i] = url
	}
	if _, err := ValidateWorklist(entries); err != nil {
		return 0, err
	}

	list := store.LoadList(worklistPath, []any{})
	listed := make(map[string]bool, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			listed[s] = true
		}
	}

	added := 0
	for _, url := range urls {
		if listed[url] {
			log.Printf("⏭  Already in worklist: %s", url)
			continue
		}
		list = append(list, url)
		listed[url] = true
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if err := store.EnsureDirectory(filepath.Dir(worklistPath)); err != nil {
		return 0, err
	}
	if err := store.SaveJSON(worklistPath, list); err != nil {
		return 0, err
	}
	return added, nil
}

func parseAbsoluteURL(raw string) (*nurl.URL, error) {
	u, err := nurl.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("must be an absolute URL")
	}
	return u, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
