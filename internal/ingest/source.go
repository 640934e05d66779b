package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-extractor/internal/pipeline"
)

// Error represents a failure to read or decode a document.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("ingest error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// supportedExtensions maps file extensions to readers. Plain text and HTML
// exports are supported; binary formats must be converted upstream.
var supportedExtensions = map[string]func(string) (string, error){
	".txt":  readPlainText,
	".md":   readPlainText,
	".html": readHTML,
	".htm":  readHTML,
}

// SupportedFile reports whether the path has a readable extension.
func SupportedFile(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadDocument reads a single resume file and returns its normalized text.
func LoadDocument(path string) (pipeline.Document, error) {
	reader, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return pipeline.Document{}, &Error{
			Path:    path,
			Message: fmt.Sprintf("unsupported file format %q", filepath.Ext(path)),
		}
	}

	text, err := reader(path)
	if err != nil {
		return pipeline.Document{}, err
	}

	return pipeline.Document{
		Filename: filepath.Base(path),
		Text:     NormalizeText(text),
	}, nil
}

// LoadDocuments reads every supported file among the given paths. A path
// naming a directory is expanded to its supported entries, sorted by name so
// results are stable. Unsupported files inside a directory are skipped;
// unsupported files named directly are an error.
func LoadDocuments(paths []string) ([]pipeline.Document, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &Error{Path: path, Message: "cannot stat path", Cause: err}
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, &Error{Path: path, Message: "cannot read directory", Cause: err}
		}
		var names []string
		for _, entry := range entries {
			if entry.IsDir() || !SupportedFile(entry.Name()) {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			files = append(files, filepath.Join(path, name))
		}
	}

	docs := make([]pipeline.Document, 0, len(files))
	for _, file := range files {
		doc, err := LoadDocument(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Path: path, Message: "failed to read file", Cause: err}
	}
	return string(data), nil
}

// readHTML extracts the visible text from an HTML export, dropping script,
// style and navigation chrome.
func readHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &Error{Path: path, Message: "failed to open file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", &Error{Path: path, Message: "failed to parse HTML", Cause: err}
	}

	doc.Find("nav, footer, header, script, style, noscript").Remove()

	// Insert newlines at block boundaries so line-based heuristics keep
	// working on the extracted text.
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text(), nil
	}
	return body.Text(), nil
}
