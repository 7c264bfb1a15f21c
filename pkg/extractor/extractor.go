// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package extractor turns object bodies into readable text.
package extractor

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"
)

// ErrBinary is returned for content that has no text representation.
var ErrBinary = errors.New("content is binary")

// Format is a supported content format.
type Format string

const (
	FormatText  Format = "text"
	FormatPDF   Format = "pdf"
	FormatHTML  Format = "html"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

var byMediaType = map[string]Format{
	"application/pdf":       FormatPDF,
	"text/html":             FormatHTML,
	"application/xhtml+xml": FormatHTML,
	"text/csv":              FormatCSV,
	"application/json":      FormatJSON,
	"application/x-ndjson":  FormatJSONL,
	"application/jsonl":     FormatJSONL,
	"text/plain":            FormatText,
}

var byExtension = map[string]Format{
	".pdf":   FormatPDF,
	".html":  FormatHTML,
	".htm":   FormatHTML,
	".csv":   FormatCSV,
	".json":  FormatJSON,
	".jsonl": FormatJSONL,
	".txt":   FormatText,
	".md":    FormatText,
	".log":   FormatText,
}

// Detect picks a format from the declared content type, then the key's
// extension, then the content itself. Generic types such as
// application/octet-stream defer to the extension.
func Detect(content []byte, key, contentType string) Format {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := byMediaType[mt]; ok {
			return f
		}
	}
	if f, ok := byExtension[strings.ToLower(path.Ext(key))]; ok {
		return f
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(content))
	if f, ok := byMediaType[sniffed]; ok {
		return f
	}
	return FormatText
}

// Extract returns the text of content and the format used to read it.
func Extract(content []byte, key, contentType string) (string, Format, error) {
	f := Detect(content, key, contentType)
	text, err := extractAs(f, content)
	return text, f, err
}

// ExtractText extracts text based on the key's extension only.
func ExtractText(content []byte, key string) (string, error) {
	text, _, err := Extract(content, key, "")
	return text, err
}

func extractAs(f Format, content []byte) (string, error) {
	switch f {
	case FormatPDF:
		return extractPDF(content)
	case FormatHTML:
		return extractHTML(content)
	case FormatCSV:
		return extractCSV(content)
	case FormatJSON:
		return extractJSON(content)
	case FormatJSONL:
		return extractJSONL(content)
	default:
		return extractText(content)
	}
}

// IsText reports whether content looks like UTF-8 text. A multi-byte rune
// cut at the end of a truncated body does not count against it.
func IsText(content []byte) bool {
	for i := 0; i < 3 && len(content) > 0 && !utf8.Valid(content); i++ {
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) {
		return false
	}
	return !strings.ContainsRune(string(content), 0)
}
