package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	nurl "net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// minContentLength is the shortest readability text accepted before falling
// back to the full page
const minContentLength = 50

const userAgent = "docs-ingest/1.0 (+https://github.com/aktagon/docs-ingest)"

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// DirectScraper fetches pages itself and converts them locally. It needs no
// credential.
type DirectScraper struct {
	client    *http.Client
	converter *md.Converter
	selector  cascadia.Selector
}

// NewDirectScraper creates a local scraper. A non-empty selector narrows the
// converted content to the matching elements.
func NewDirectScraper(client *http.Client, selector string) (*DirectScraper, error) {
	if client == nil {
		client = &http.Client{}
	}
	s := &DirectScraper{
		client:    client,
		converter: md.NewConverter("", true, nil),
	}
	if selector != "" {
		compiled, err := cascadia.Compile(selector)
		if err != nil {
			return nil, configErrorf("invalid content selector %q: %v", selector, err)
		}
		s.selector = compiled
	}
	return s, nil
}

func (s *DirectScraper) Name() string {
	return providerDirect
}

// Scrape downloads url and converts the page to markdown
func (s *DirectScraper) Scrape(ctx context.Context, url string) (*ScrapeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return s.convert(url, string(body))
}

func (s *DirectScraper) convert(pageURL, rawHTML string) (*ScrapeResponse, error) {
	article := extractArticle(rawHTML, pageURL)

	content := article.Content
	if s.selector != nil {
		narrowed, err := selectContent(rawHTML, s.selector)
		if err != nil {
			return nil, err
		}
		content = narrowed
	}

	markdown, err := s.converter.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = firstHeading(markdown)
	}

	return &ScrapeResponse{
		Success:     true,
		Markdown:    markdown,
		Title:       title,
		Description: strings.TrimSpace(article.Excerpt),
	}, nil
}

// extractArticle runs readability over the page. Metadata is kept even when
// the extracted body is too short, in which case the full page is converted.
func extractArticle(rawHTML, pageURL string) readability.Article {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		debugLog("readability: invalid page URL %s: %v", pageURL, err)
		return readability.Article{Content: rawHTML}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		debugLog("readability: extraction failed for %s: %v", pageURL, err)
		return readability.Article{Content: rawHTML}
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		debugLog("readability: content too short for %s, converting full page", pageURL)
		article.Content = rawHTML
	}
	return article
}

// selectContent returns the outer HTML of every element matching selector,
// or the whole page when nothing matches
func selectContent(rawHTML string, selector cascadia.Selector) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	matches := doc.FindMatcher(selector)
	if matches.Length() == 0 {
		return rawHTML, nil
	}

	var b strings.Builder
	matches.Each(func(_ int, sel *goquery.Selection) {
		if html, err := goquery.OuterHtml(sel); err == nil {
			b.WriteString(html)
		}
	})
	return b.String(), nil
}

// firstHeading returns the text of the first level-1 heading in markdown,
// or of the first heading of any level when there is no level-1 heading
func firstHeading(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var first, top string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		title := strings.TrimSpace(string(heading.Text(source)))
		if first == "" {
			first = title
		}
		if heading.Level == 1 {
			top = title
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	if top != "" {
		return top
	}
	return first
}
