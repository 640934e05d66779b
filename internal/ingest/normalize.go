// Package ingest reads resume documents from disk and prepares their text
// for extraction. Scanned and converted documents arrive with broken words,
// stray bullets and page-number noise; the normalization here repairs the
// common cases so downstream parsing sees coherent lines.
package ingest

import (
	"regexp"
	"strings"
)

// PageSeparator joins text from multi-page documents so page boundaries
// stay visible to the extraction prompt.
const PageSeparator = "\n\n=== PAGE BREAK ===\n\n"

var (
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	repeatedSpaces  = regexp.MustCompile(` {2,}`)
	trailingSpaces  = regexp.MustCompile(` +\n`)
	leadingSpaces   = regexp.MustCompile(`\n +`)
	hyphenBreak     = regexp.MustCompile(`-\s*\n\s*`)
	softLineBreak   = regexp.MustCompile(`([a-z])\n([a-z])`)
	bulletMarks     = regexp.MustCompile(`[•▪▫◦‣]`)
	pageNumber      = regexp.MustCompile(`(?i)\b(page|pg\.?)\s*\d+\b`)
	pageOfTotal     = regexp.MustCompile(`(?i)\b\d+\s*of\s*\d+\b`)
	// A period glued to an uppercase letter is a missing sentence gap. The
	// uppercase requirement keeps domain names like acme.com intact.
	missingDotGap   = regexp.MustCompile(`\.([A-Z])`)
	missingCommaGap = regexp.MustCompile(`,([A-Za-z])`)
	spacedAt        = regexp.MustCompile(`\s*@\s*`)
)

// NormalizeText cleans raw document text: line endings, spacing, words
// broken across lines, bullet glyphs and page-number noise.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = normalizeSpacing(text)
	text = fixBrokenWords(text)
	text = cleanArtifacts(text)
	text = fixPunctuationSpacing(text)

	return strings.TrimSpace(text)
}

// ConcatenatePages joins per-page text with a visible separator and
// normalizes the combined result.
func ConcatenatePages(pages []string) string {
	if len(pages) == 0 {
		return ""
	}
	return NormalizeText(strings.Join(pages, PageSeparator))
}

func normalizeSpacing(text string) string {
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = repeatedSpaces.ReplaceAllString(text, " ")
	text = trailingSpaces.ReplaceAllString(text, "\n")
	text = leadingSpaces.ReplaceAllString(text, "\n")
	return text
}

func fixBrokenWords(text string) string {
	// Rejoin hyphenated words split across lines
	text = hyphenBreak.ReplaceAllString(text, "")
	// Rejoin words split without a hyphen, common in OCR output
	text = softLineBreak.ReplaceAllString(text, "$1$2")
	return text
}

func cleanArtifacts(text string) string {
	text = bulletMarks.ReplaceAllString(text, "")
	text = pageNumber.ReplaceAllString(text, "")
	text = pageOfTotal.ReplaceAllString(text, "")
	return text
}

func fixPunctuationSpacing(text string) string {
	text = missingDotGap.ReplaceAllString(text, ". $1")
	text = missingCommaGap.ReplaceAllString(text, ", $1")
	// Emails sometimes arrive with spaces around the @ sign
	text = spacedAt.ReplaceAllString(text, "@")
	return text
}
