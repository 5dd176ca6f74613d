// Package extract implements the regex heuristics shared by source adapters
// and the enrichment stage. Extraction is best-effort signal capture: false
// negatives drop a record, false positives are corrected downstream by scoring.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	nameRe  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

	// Legal-entity suffixes that mark the end of a company name.
	companyRe = regexp.MustCompile(
		`\b((?:[A-Z][A-Za-z&'\-]*\s+){1,5}(?:Inc|LLC|Corp|Corporation|Ltd|Co|Company|Group|Realty|Solutions|Systems|Technologies|Partners|Ventures|Agency|Associates)\b\.?)`)

	nonDomainChars = regexp.MustCompile(`[^a-z0-9]`)
)

// Suffixes stripped from a company name before deriving a domain.
var legalSuffixes = []string{
	"incorporated", "corporation", "company", "inc", "llc", "corp", "ltd", "co", "group",
}

// Email returns the first email address found in text, or "".
func Email(text string) string {
	for _, m := range emailRe.FindAllString(text, -1) {
		if plausibleEmail(m) {
			return m
		}
	}
	return ""
}

// Emails returns every plausible email address found in text.
func Emails(text string) []string {
	matches := emailRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if plausibleEmail(m) {
			out = append(out, m)
		}
	}
	return out
}

// Minified asset names match the email pattern surprisingly often.
func plausibleEmail(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"} {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// Phone returns the first phone-shaped token in text, or "".
func Phone(text string) string {
	return strings.TrimSpace(phoneRe.FindString(text))
}

// PersonName returns the first capitalized multi-word sequence in text, or "".
func PersonName(text string) string {
	return nameRe.FindString(text)
}

// CompanyName returns the first token sequence ending in a legal-entity
// suffix, or "".
func CompanyName(text string) string {
	m := companyRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
}

// Domain derives an email domain from a website URL, falling back to a
// normalized form of the company name. Returns "" when neither yields one.
func Domain(website, companyName string) string {
	if website != "" {
		if d := domainFromURL(website); d != "" {
			return d
		}
	}
	return domainFromCompany(companyName)
}

func domainFromURL(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func domainFromCompany(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Fields(strings.ToLower(name))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = nonDomainChars.ReplaceAllString(w, "")
		if w == "" || isLegalSuffix(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "") + ".com"
}

func isLegalSuffix(w string) bool {
	for _, s := range legalSuffixes {
		if w == s {
			return true
		}
	}
	return false
}
