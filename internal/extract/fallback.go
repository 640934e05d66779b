package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-extractor/internal/schema"
)

// emailPattern matches a standard email address.
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// phonePatterns is an ordered list of phone number forms: international,
// mobile, dashed, parenthesized and bare-digit. The first pattern that
// matches anywhere wins.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b0\d{3}\s*\d{3}\s*\d{3}\b`),         // 0123 456 789
	regexp.MustCompile(`\+61\s*\d{3}\s*\d{3}\s*\d{3}\b`),     // +61 123 456 789
	regexp.MustCompile(`\b04\d{2}\s*\d{3}\s*\d{3}\b`),        // 04XX XXX XXX
	regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),              // 123-456-7890
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),            // (123) 456-7890
	regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{4}\b`),            // 123.456.7890
	regexp.MustCompile(`\b\d{10}\b`),                         // 1234567890
	regexp.MustCompile(`\+\d{1,3}\s*\d{3,4}\s*\d{3,4}\s*\d{3,4}`), // +1 123 456 7890
	regexp.MustCompile(`\b0\d{9}\b`),                         // 0123456789
	regexp.MustCompile(`\b06\d\s*\d{3}\s*\d{4}\b`),           // 060 XXX XXXX
}

// boilerplateWords disqualify a line from being a candidate name.
var boilerplateWords = []string{"resume", "cv", "curriculum", "vitae", "profile", "page", "contact"}

// titleLabelPatterns match explicitly labeled job titles.
var titleLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:position|title|role|job)\s*:?\s*([^.\n]+)`),
	regexp.MustCompile(`(?i)(?:current|present)\s+(?:position|title|role)\s*:?\s*([^.\n]+)`),
	regexp.MustCompile(`(?i)(?:working as|employed as)\s+([^.\n]+)`),
}

// knownTitles is a curated lexicon of common title phrases, matched
// case-insensitively when no labeled title is found.
var knownTitles = []string{
	// Management and operations
	"operations manager", "warehouse manager", "sales manager", "general manager",
	"logistics coordinator", "warehouse supervisor", "receiving supervisor",
	"production manager", "inventory team lead", "team leader", "supervisor",
	"logistics manager", "supply chain manager", "distribution manager",

	// Warehouse and logistics
	"warehouse team member", "forklift operator", "warehouse coordinator",
	"inventory coordinator", "shipping coordinator", "receiving coordinator",
	"pick packer", "warehouse associate",

	// Customer service and sales
	"customer service officer", "sales representative", "account manager",
	"customer service manager", "client servicing consultant",
	"business development consultant", "key account manager",

	// Technical and data
	"data scientist", "software engineer", "software developer", "web developer",
	"data analyst", "research programmer", "analyst programmer",
	"systems analyst", "business analyst", "research fellow",

	// Other
	"waitress", "kitchen hand", "retail associate", "office manager",
	"administration officer", "merchandising", "security officer",
}

// phoneWindowSize bounds the contact-block search that follows the email's
// position in the raw text.
const phoneWindowSize = 150

// DefaultMinPhoneDigits is the digit count at which a model-supplied phone
// number is trusted over a regex match. A heuristic, so it stays configurable.
const DefaultMinPhoneDigits = 8

// FallbackOptions tune the deterministic recovery heuristics.
type FallbackOptions struct {
	MinPhoneDigits int
}

// DefaultFallbackOptions returns the standard thresholds.
func DefaultFallbackOptions() FallbackOptions {
	return FallbackOptions{MinPhoneDigits: DefaultMinPhoneDigits}
}

// Enrich overlays deterministic regex recoveries onto a model-produced
// record. A structurally valid model value always wins; the fallback only
// fills gaps or replaces structurally invalid values. Pure function: given
// identical inputs the output is always identical.
func Enrich(record schema.CandidateRecord, rawText string) schema.CandidateRecord {
	return EnrichWithOptions(record, rawText, DefaultFallbackOptions())
}

// EnrichWithOptions is Enrich with explicit thresholds.
func EnrichWithOptions(record schema.CandidateRecord, rawText string, opts FallbackOptions) schema.CandidateRecord {
	if opts.MinPhoneDigits <= 0 {
		opts.MinPhoneDigits = DefaultMinPhoneDigits
	}

	record.Email = resolveEmail(record.Email, rawText)
	record.Phone = resolvePhone(record.Phone, record.Email, rawText, opts.MinPhoneDigits)

	if !record.HasName() {
		first, last := extractNameFallback(rawText)
		record.FirstName = first
		record.LastName = last
	}

	if record.CurrentTitle == "" {
		record.CurrentTitle = extractTitleFallback(rawText)
	}

	return cleanRecord(record)
}

// resolveEmail keeps the model's email when it is structurally valid,
// otherwise substitutes the first regex match from the raw text.
func resolveEmail(aiEmail, rawText string) string {
	aiEmail = strings.TrimSpace(aiEmail)
	if aiEmail != "" && strings.Contains(aiEmail, "@") {
		return aiEmail
	}
	if match := emailPattern.FindString(rawText); match != "" {
		return match
	}
	return aiEmail
}

// resolvePhone searches a bounded window after the resolved email first
// (contact blocks co-locate email and phone), then the whole text. The
// model's phone wins over a regex match only when it carries at least
// minDigits digits.
func resolvePhone(aiPhone, email, rawText string, minDigits int) string {
	aiPhone = strings.TrimSpace(aiPhone)

	regexPhone := ""
	if email != "" {
		if pos := strings.Index(rawText, email); pos >= 0 {
			end := pos + phoneWindowSize
			if end > len(rawText) {
				end = len(rawText)
			}
			regexPhone = firstPhoneMatch(rawText[pos:end])
		}
	}
	if regexPhone == "" {
		regexPhone = firstPhoneMatch(rawText)
	}

	if regexPhone == "" {
		return aiPhone
	}
	if countDigits(aiPhone) >= minDigits {
		return aiPhone
	}
	return regexPhone
}

// firstPhoneMatch applies the ordered pattern list and returns the first hit.
func firstPhoneMatch(text string) string {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

// extractNameFallback scans the first ten non-empty lines for a run of 2-4
// capitalized alphabetic tokens, skipping resume boilerplate. The first token
// becomes the first name, the remaining tokens the family name.
func extractNameFallback(rawText string) (first, last string) {
	lines := strings.Split(rawText, "\n")
	seen := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > 10 {
			break
		}
		if containsBoilerplate(line) {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if !allNameLike(words) {
			continue
		}
		return words[0], strings.Join(words[1:], " ")
	}
	return "", ""
}

func containsBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range boilerplateWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// allNameLike reports whether every token longer than one rune starts with an
// uppercase letter and is alphabetic once trailing punctuation is removed.
func allNameLike(words []string) bool {
	for _, word := range words {
		if len(word) <= 1 {
			continue
		}
		stripped := strings.Map(func(r rune) rune {
			if r == '.' || r == ',' {
				return -1
			}
			return r
		}, word)
		if stripped == "" {
			return false
		}
		runes := []rune(stripped)
		if runes[0] < 'A' || runes[0] > 'Z' {
			return false
		}
		for _, r := range runes {
			if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
				return false
			}
		}
	}
	return true
}

// maxTitleLength rejects runaway label captures.
const maxTitleLength = 100

// extractTitleFallback tries labeled patterns first, then the curated title
// lexicon with surrounding-context expansion.
func extractTitleFallback(rawText string) string {
	for _, pattern := range titleLabelPatterns {
		if m := pattern.FindStringSubmatch(rawText); m != nil {
			title := strings.TrimSpace(m[1])
			if title != "" && len(title) < maxTitleLength {
				return titleCase(title)
			}
		}
	}

	textLower := strings.ToLower(rawText)
	for _, known := range knownTitles {
		if !strings.Contains(textLower, known) {
			continue
		}
		// Expand to the sentence fragment around the known phrase.
		contextPattern := regexp.MustCompile(fmt.Sprintf(`[^.\n]*%s[^.\n]*`, regexp.QuoteMeta(known)))
		if m := contextPattern.FindString(textLower); m != "" {
			expanded := strings.TrimSpace(m)
			if len(expanded) < maxTitleLength {
				return titleCase(expanded)
			}
		}
		return titleCase(known)
	}
	return ""
}

// cleanRecord applies final hygiene: a non-empty email that does not match
// the email pattern is cleared, and phone values lose stray characters.
func cleanRecord(record schema.CandidateRecord) schema.CandidateRecord {
	if record.Email != "" && !emailPattern.MatchString(record.Email) {
		record.Email = ""
	}
	if record.Phone != "" {
		record.Phone = strings.TrimSpace(phoneCleanPattern.ReplaceAllString(record.Phone, ""))
	}
	return record
}

// phoneCleanPattern strips characters that never appear in a phone number.
var phoneCleanPattern = regexp.MustCompile(`[^\d\-().+\s]`)

// titleCase uppercases the first letter of each space-separated word. Used
// only for fallback-derived values where the source match was lowercased.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		if runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] = runes[0] - 'a' + 'A'
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
