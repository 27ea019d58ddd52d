package search

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mailsonar/mailsonar/core"
)

// Text-cleaning policy constants. These heuristics are inherently fuzzy;
// they are named here so alternate implementations can be verified against
// the same scenarios.
const (
	// MaxNormalizedLen is the hard cap, in characters, on normalized text.
	MaxNormalizedLen = 500

	// Ellipsis marks text that was cut at MaxNormalizedLen.
	Ellipsis = "..."

	// SubjectWeight is how many times the subject is repeated in the
	// embeddable document text, biasing relevance toward subject matches.
	SubjectWeight = 2

	// EmptyDocPlaceholder is embedded in place of a document whose subject
	// and body normalize to nothing, avoiding degenerate model input.
	EmptyDocPlaceholder = "empty document"
)

// boilerplateMarkers end the useful part of an email body. Everything from
// the first case-insensitive occurrence of any marker onward is discarded.
var boilerplateMarkers = []string{
	"unsubscribe",
	"privacy policy",
	"terms of service",
	"sent from",
	"best regards",
	"sincerely",
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	urlPattern        = regexp.MustCompile(`http[s]?://\S+`)
	emailAddrPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	specialCharFilter = regexp.MustCompile(`[^\w\s.,!?;:\-'"()]`)
	whitespaceRuns    = regexp.MustCompile(`\s+`)
)

// NormalizeText cleans raw email text into an embeddable string.
//
// The pipeline is order-sensitive: quoted-reply lines must be dropped
// before whitespace collapsing destroys the newlines that identify them,
// and boilerplate truncation must see the text before punctuation
// filtering rewrites the markers. Empty output is valid; the function
// never fails, and it is idempotent on its own output.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}

	text := html.UnescapeString(raw)
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	text = emailAddrPattern.ReplaceAllString(text, " ")
	text = dropQuotedLines(text)
	text = truncateAtBoilerplate(text)
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = specialCharFilter.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))

	if utf8.RuneCountInString(text) > MaxNormalizedLen {
		text = string([]rune(text)[:MaxNormalizedLen]) + Ellipsis
	}
	return text
}

// dropQuotedLines removes quoted-reply lines, i.e. lines whose trimmed
// form starts with ">".
func dropQuotedLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// truncateAtBoilerplate cuts the text at the earliest case-insensitive
// occurrence of any boilerplate marker.
func truncateAtBoilerplate(text string) string {
	lower := strings.ToLower(text)
	cut := -1
	for _, marker := range boilerplateMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
		}
	}
	if cut >= 0 {
		return text[:cut]
	}
	return text
}

// DocumentText builds the embeddable text for an email: the normalized
// subject repeated SubjectWeight times, then the normalized body. The full
// body is preferred over the preview when present. An email that
// normalizes to nothing yields EmptyDocPlaceholder.
func DocumentText(email *core.Email) string {
	subject := NormalizeText(email.Subject)

	body := email.FullBody
	if body == "" {
		body = email.Body
	}
	body = NormalizeText(body)

	parts := make([]string, 0, SubjectWeight+1)
	for i := 0; i < SubjectWeight; i++ {
		parts = append(parts, subject)
	}
	parts = append(parts, body)

	combined := strings.TrimSpace(whitespaceRuns.ReplaceAllString(strings.Join(parts, " "), " "))
	if combined == "" {
		return EmptyDocPlaceholder
	}
	return combined
}
