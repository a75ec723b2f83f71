package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

// IndexEntry describes one record in the index document
type IndexEntry struct {
	Filename     string
	URL          string
	Title        string
	DisplayTitle string
	Date         string
	Updated      string
}

type indexData struct {
	Title           string
	Total           int
	Entries         []IndexEntry
	BaseURL         string
	Repository      string
	MCPName         string
	Topics          []string
	OutputDirectory string
	Worklist        string
	IndexFile       string
	GeneratedOn     string
}

// IndexGenerator rebuilds the index document from the record files
type IndexGenerator struct {
	store       *FileStore
	tmpl        *template.Template
	titleSuffix *regexp.Regexp
	settings    *Settings
}

// NewIndexGenerator creates a generator using the configured template
func NewIndexGenerator(cfg *Config, store *FileStore) (*IndexGenerator, error) {
	source, err := cfg.GetIndexTemplate()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("index").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	var suffix *regexp.Regexp
	if cfg.Settings.TitleSuffixPattern != "" {
		suffix, err = regexp.Compile(cfg.Settings.TitleSuffixPattern)
		if err != nil {
			return nil, fmt.Errorf("compiling title suffix pattern: %w", err)
		}
	}

	return &IndexGenerator{
		store:       store,
		tmpl:        tmpl,
		titleSuffix: suffix,
		settings:    cfg.Settings,
	}, nil
}

// Generate rewrites the index file from scratch. It does nothing and returns
// false when there are no records.
func (g *IndexGenerator) Generate(now time.Time) (bool, error) {
	entries, err := g.CollectEntries()
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	content, err := g.Render(entries, now)
	if err != nil {
		return false, err
	}

	indexPath := g.settings.IndexFile
	if dir := filepath.Dir(indexPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("creating index directory: %w", err)
		}
	}
	if err := os.WriteFile(indexPath, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("writing index %s: %w", indexPath, err)
	}
	return true, nil
}

// CollectEntries reads every record header. Records that cannot be read or
// have no header are listed under their filename.
func (g *IndexGenerator) CollectEntries() ([]IndexEntry, error) {
	files, err := g.store.ListRecordFiles()
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(files))
	for _, filename := range files {
		entry := IndexEntry{
			Filename: filename,
			Title:    strings.TrimSuffix(filename, recordExtension),
		}

		header, ok, err := g.store.ReadRecordHeader(filename)
		if err != nil {
			log.Printf("Warning: error reading %s for index generation: %v", filename, err)
		} else if ok {
			entry.URL = header.URL
			entry.Date = header.ScrapedAt
			if header.Title != "" {
				entry.Title = header.Title
			}
		}

		entry.DisplayTitle = g.displayTitle(entry.Title)
		entry.Updated, _, _ = strings.Cut(entry.Date, "T")
		entries = append(entries, entry)
	}
	return entries, nil
}

// Render produces the index document for entries
func (g *IndexGenerator) Render(entries []IndexEntry, now time.Time) (string, error) {
	data := indexData{
		Title:           g.settings.IndexTitle,
		Total:           len(entries),
		Entries:         entries,
		BaseURL:         strings.TrimRight(g.settings.IndexBaseURL, "/"),
		Repository:      g.settings.IndexRepository,
		MCPName:         mcpToolName(g.settings.IndexRepository),
		Topics:          g.settings.IndexTopics,
		OutputDirectory: filepath.ToSlash(g.settings.OutputDirectory),
		Worklist:        g.settings.WorklistFile,
		IndexFile:       g.settings.IndexFile,
		GeneratedOn:     now.UTC().Format("2006-01-02"),
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing index template: %w", err)
	}
	return buf.String(), nil
}

func (g *IndexGenerator) displayTitle(title string) string {
	if g.titleSuffix == nil {
		return title
	}
	return g.titleSuffix.ReplaceAllString(title, "")
}

// mcpToolName is the repository name as it appears in the generated MCP tool
// names, e.g. "vltansky/e11y-mcp" becomes "e11y_mcp"
func mcpToolName(repository string) string {
	return strings.ReplaceAll(path.Base(repository), "-", "_")
}
