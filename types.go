package main

// FetchResult is the converted page returned by the content fetcher
type FetchResult struct {
	Markdown    string
	Title       string
	Description string
	URL         string
	Timestamp   string
}

// FetchOutcome is either a result or the reason the fetch failed
type FetchOutcome struct {
	Result *FetchResult
	Err    *ScrapingError
}

// OK reports whether the fetch produced a result
func (o FetchOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// ProcessingStatus represents the outcome status of processing a URL
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each URL
type ProcessingResult struct {
	URL      string
	Status   ProcessingStatus
	Filename string
	Error    error
}

// URLError pairs a failed URL with its error message
type URLError struct {
	URL     string
	Message string
}

// RunResult aggregates the counters of one ingestion run
type RunResult struct {
	Total      int
	Processed  int
	Skipped    int
	Successful int
	Failed     int
	Errors     []URLError
}

// Record adds a processing result to the run counters
func (r *RunResult) Record(result ProcessingResult) {
	r.Processed++
	switch result.Status {
	case StatusSkipped:
		r.Skipped++
	case StatusSuccess:
		r.Successful++
	default:
		r.Failed++
		msg := "unknown error"
		if result.Error != nil {
			msg = result.Error.Error()
		}
		r.Errors = append(r.Errors, URLError{URL: result.URL, Message: msg})
	}
}
