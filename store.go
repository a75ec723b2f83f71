package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const recordExtension = ".md"

var (
	schemeRegex     = regexp.MustCompile(`https?://`)
	unsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	separatorRegex  = regexp.MustCompile(`_+`)
)

// FileStore owns the worklist, record files and index on disk
type FileStore struct {
	outputDir         string
	maxFilenameLength int
}

// NewFileStore creates a store rooted at the configured output directory
func NewFileStore(settings *Settings) *FileStore {
	return &FileStore{
		outputDir:         settings.OutputDirectory,
		maxFilenameLength: settings.MaxFilenameLength,
	}
}

// OutputDir returns the directory holding the record files
func (s *FileStore) OutputDir() string {
	return s.outputDir
}

// EnsureDirectory creates the directory and its parents if absent
func (s *FileStore) EnsureDirectory(path string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("creating directory %s: not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	log.Printf("📁 Created directory: %s", path)
	return nil
}

// LoadList parses a JSON array from disk. A missing or malformed file yields def.
func (s *FileStore) LoadList(path string, def []any) []any {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: error reading %s, using default: %v", path, err)
		}
		return def
	}

	var list []any
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("Warning: error parsing %s, using default: %v", path, err)
		return def
	}
	if list == nil {
		// JSON null
		return def
	}
	return list
}

// SaveJSON serializes v as indented JSON, overwriting path
func (s *FileStore) SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// DeriveFilename maps a URL to a filesystem-safe record filename. Distinct
// URLs that normalize identically share a filename.
func (s *FileStore) DeriveFilename(url string) string {
	name := url
	if loc := schemeRegex.FindStringIndex(name); loc != nil {
		name = name[:loc[0]] + name[loc[1]:]
	}
	name = unsafeCharRegex.ReplaceAllString(name, "_")
	name = separatorRegex.ReplaceAllString(name, "_")
	name = strings.TrimPrefix(name, "_")
	name = strings.TrimSuffix(name, "_")
	if len(name) > s.maxFilenameLength {
		name = name[:s.maxFilenameLength]
	}
	if name == "" {
		name = "untitled"
	}
	return name + recordExtension
}

// WriteRecord writes a record into the output directory, replacing any file
// of the same name
func (s *FileStore) WriteRecord(filename, content string) (string, error) {
	path := filepath.Join(s.outputDir, filename)

	if existing := s.ExtractURL(filename); existing != "" {
		if header, ok := DecodeRecordHeader(content); ok && header.URL != existing {
			log.Printf("Warning: %s already holds %s, overwriting with %s", filename, existing, header.URL)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing record %s: %w", path, err)
	}
	return path, nil
}

// ListRecordFiles returns the sorted record filenames in the output directory
func (s *FileStore) ListRecordFiles() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", s.outputDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExtension) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// ReadRecordHeader opens a record and decodes its frontmatter
func (s *FileStore) ReadRecordHeader(filename string) (RecordHeader, bool, error) {
	content, err := os.ReadFile(filepath.Join(s.outputDir, filename))
	if err != nil {
		return RecordHeader{}, false, err
	}
	header, ok := DecodeRecordHeader(string(content))
	return header, ok, nil
}

// ExtractURL returns the url field of a record, or "" if the file is
// missing, has no header or no url
func (s *FileStore) ExtractURL(filename string) string {
	header, ok, err := s.ReadRecordHeader(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: error reading %s: %v", filename, err)
		}
		return ""
	}
	if !ok {
		return ""
	}
	return header.URL
}

// CollectIngestedURLs returns the set of URLs recorded in the output directory
func (s *FileStore) CollectIngestedURLs() map[string]struct{} {
	urls := make(map[string]struct{})

	files, err := s.ListRecordFiles()
	if err != nil {
		log.Printf("Warning: %v", err)
		return urls
	}

	for _, filename := range files {
		if url := s.ExtractURL(filename); url != "" {
			urls[url] = struct{}{}
		}
	}
	return urls
}

// FindDuplicateURLs groups record files that carry the same url
func (s *FileStore) FindDuplicateURLs() (map[string][]string, error) {
	files, err := s.ListRecordFiles()
	if err != nil {
		return nil, err
	}

	byURL := make(map[string][]string)
	for _, filename := range files {
		if url := s.ExtractURL(filename); url != "" {
			byURL[url] = append(byURL[url], filename)
		}
	}

	duplicates := make(map[string][]string)
	for url, names := range byURL {
		if len(names) > 1 {
			duplicates[url] = names
		}
	}
	return duplicates, nil
}
