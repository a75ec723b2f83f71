package main

import (
	"fmt"
	"io"
)

// PrintSummary writes the run counters, the failed URLs and the number of
// record files currently on disk
func PrintSummary(w io.Writer, results *RunResult, fileCount int, dir string) {
	fmt.Fprintln(w, "\n📊 Scraping Summary:")
	fmt.Fprintf(w, "📁 Total URLs: %d\n", results.Total)
	fmt.Fprintf(w, "✅ Successfully scraped: %d\n", results.Successful)
	fmt.Fprintf(w, "⏭️  Skipped (already scraped): %d\n", results.Skipped)
	fmt.Fprintf(w, "❌ Failed: %d\n", results.Failed)

	if len(results.Errors) > 0 {
		fmt.Fprintln(w, "\n🔍 Errors:")
		for _, e := range results.Errors {
			fmt.Fprintf(w, "  • %s: %s\n", e.URL, e.Message)
		}
	}

	fmt.Fprintf(w, "\n📄 Total markdown files: %d\n", fileCount)
	fmt.Fprintf(w, "📁 Files location: %s\n", dir)
}
