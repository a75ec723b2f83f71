package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 32 << 20

// FirecrawlClient calls the hosted scrape endpoint of a Firecrawl-compatible API
type FirecrawlClient struct {
	baseURL         string
	apiKey          string
	onlyMainContent bool
	client          *http.Client
}

type firecrawlScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Markdown string `json:"markdown"`
		Metadata *struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"metadata"`
	} `json:"data"`
}

// NewFirecrawlClient creates a client for the scrape endpoint under baseURL
func NewFirecrawlClient(baseURL, apiKey string, onlyMainContent bool, client *http.Client) *FirecrawlClient {
	if client == nil {
		client = &http.Client{}
	}
	return &FirecrawlClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiKey:          apiKey,
		onlyMainContent: onlyMainContent,
		client:          client,
	}
}

func (c *FirecrawlClient) Name() string {
	return providerFirecrawl
}

// Scrape requests markdown output for url
func (c *FirecrawlClient) Scrape(ctx context.Context, url string) (*ScrapeResponse, error) {
	payload, err := json.Marshal(firecrawlScrapeRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: c.onlyMainContent,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding scrape request: %w", err)
	}

	endpoint := c.baseURL + "/v1/scrape"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading scrape response: %w", err)
	}
	debugLog("firecrawl response: status=%d bytes=%d", resp.StatusCode, len(body))

	var decoded firecrawlScrapeResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint, Message: decoded.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding scrape response: %w", decodeErr)
	}

	result := &ScrapeResponse{
		Success: decoded.Success,
		Error:   decoded.Error,
	}
	if decoded.Data != nil {
		result.Markdown = decoded.Data.Markdown
		if decoded.Data.Metadata != nil {
			result.Title = decoded.Data.Metadata.Title
			result.Description = decoded.Data.Metadata.Description
		}
	}
	return result, nil
}
