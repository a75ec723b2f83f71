package main

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// RecordHeader is the frontmatter written at the top of every record.
// Field order is the on-disk key order.
type RecordHeader struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	ScrapedAt   string `yaml:"scraped_at"`
	Description string `yaml:"description,omitempty"`
}

var recordFormats = []*frontmatter.Format{
	frontmatter.NewFormat(frontmatterDelimiter, frontmatterDelimiter, yaml.Unmarshal),
}

var (
	headerBlockRegex = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---`)
	headerLineRegex  = regexp.MustCompile(`(?m)^([a-z_]+):[ \t]*(.*?)[ \t]*\r?$`)
)

// EncodeRecord renders the header and markdown body as a record file.
func EncodeRecord(header RecordHeader, body string) string {
	var b strings.Builder
	b.WriteString(frontmatterDelimiter + "\n")
	writeField(&b, "url", header.URL)
	writeField(&b, "title", header.Title)
	writeField(&b, "scraped_at", header.ScrapedAt)
	if header.Description != "" {
		writeField(&b, "description", header.Description)
	}
	b.WriteString(frontmatterDelimiter + "\n")
	b.WriteString(body)
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(scalar(value))
	b.WriteString("\n")
}

// scalar keeps values plain whenever the YAML decoder reads them back
// unchanged, and double-quotes them otherwise.
func scalar(value string) string {
	if value != "" && !strings.ContainsAny(value, "\r\n") {
		var probe struct {
			V string `yaml:"v"`
		}
		if err := yaml.Unmarshal([]byte("v: "+value), &probe); err == nil && probe.V == value {
			return value
		}
	}
	quoted, _ := json.Marshal(value)
	return string(quoted)
}

// DecodeRecordHeader reads the frontmatter of a record. The boolean is false
// when the content has no header block.
func DecodeRecordHeader(content string) (RecordHeader, bool) {
	var header RecordHeader
	_, err := frontmatter.MustParse(strings.NewReader(content), &header, recordFormats...)
	if errors.Is(err, frontmatter.ErrNotFound) {
		return RecordHeader{}, false
	}

	raw, ok := rawHeaderFields(content)
	if err != nil {
		// Records written before values were quoted can hold plain text that is
		// not valid YAML, e.g. titles containing ": ".
		debugLog("frontmatter is not valid YAML, using line parser: %v", err)
		if !ok {
			return RecordHeader{}, false
		}
		return headerFromFields(raw), true
	}
	return restorePlainValues(header, raw), true
}

// restorePlainValues keeps the full line text of unquoted values that YAML
// shortened, e.g. "Step #1" read as a comment or "!important" read as a tag.
func restorePlainValues(header RecordHeader, raw map[string]string) RecordHeader {
	for key, target := range headerFields(&header) {
		value, ok := raw[key]
		if !ok || value == "" || strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "'") {
			continue
		}
		if *target != value {
			debugLog("frontmatter %s decoded as %q, keeping line text %q", key, *target, value)
			*target = value
		}
	}
	return header
}

// rawHeaderFields returns the trimmed text after "key:" for every line of the
// header block
func rawHeaderFields(content string) (map[string]string, bool) {
	block := headerBlockRegex.FindStringSubmatch(content)
	if block == nil {
		return nil, false
	}

	fields := make(map[string]string)
	for _, m := range headerLineRegex.FindAllStringSubmatch(block[1], -1) {
		fields[m[1]] = strings.TrimSpace(m[2])
	}
	return fields, true
}

func headerFromFields(fields map[string]string) RecordHeader {
	var header RecordHeader
	for key, target := range headerFields(&header) {
		*target = fields[key]
	}
	return header
}

func headerFields(header *RecordHeader) map[string]*string {
	return map[string]*string{
		"url":         &header.URL,
		"title":       &header.Title,
		"scraped_at":  &header.ScrapedAt,
		"description": &header.Description,
	}
}
