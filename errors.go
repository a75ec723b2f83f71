package main

import "fmt"

// ConfigurationError reports a setup problem that makes the run meaningless:
// missing credential, missing or empty worklist, invalid settings.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports a worklist entry that is not a well-formed URL.
type ValidationError struct {
	Index  int
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entry %d (%v): %s", e.Index, e.Value, e.Reason)
}

// ScrapingError wraps any failure to fetch or convert a single URL.
type ScrapingError struct {
	URL string
	Err error
}

func (e *ScrapingError) Error() string {
	return fmt.Sprintf("failed to scrape URL: %v", e.Err)
}

func (e *ScrapingError) Unwrap() error {
	return e.Err
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d for %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
