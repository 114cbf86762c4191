// Package textclean normalizes scraped posting text before it is prompted.
package textclean

import (
	"regexp"
	"strings"
)

var (
	runsOfBlanks   = regexp.MustCompile(`[ \t]+`)
	runsOfNewlines = regexp.MustCompile(`\n{3,}`)

	// Boilerplate lines from job boards that add noise without content.
	dropPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Apply$`),
		regexp.MustCompile(`(?i)^Apply by\b.*$`),
		regexp.MustCompile(`(?i)^Posted\s+.*$`),
		regexp.MustCompile(`(?i)^At a glance$`),
		regexp.MustCompile(`(?i)^Show more$`),
		regexp.MustCompile(`(?i)^See more$`),
		regexp.MustCompile(`(?i)^More$`),
		regexp.MustCompile(`(?i)^Handshake$`),
	}
)

// Clean normalizes whitespace and strips job-board boilerplate lines.
func Clean(raw string) string {
	return dropNoisyLines(normalizeWhitespace(raw))
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = runsOfBlanks.ReplaceAllString(text, " ")
	text = runsOfNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func dropNoisyLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s != "" && matchesAny(s) {
			continue
		}
		kept = append(kept, line)
	}
	out := runsOfNewlines.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func matchesAny(line string) bool {
	for _, p := range dropPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
