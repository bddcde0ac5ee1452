// Package extract holds the deterministic text-extraction utilities shared by
// both pipelines: email discovery, niche/city phrase parsing, URL
// normalization and HTML cleaning. Everything here is pure string
// transformation; the filter constants are load-bearing and changing any of
// them silently changes pipeline output.
package extract

import (
	"regexp"
	"strings"
)

// Candidate is a single email candidate produced by Emails.
type Candidate struct {
	Email string
}

var emailRe = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)

var strictEmailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// repeatedSepRe rejects local parts like "a..b" or "x__y" that are almost
// always scraped garbage rather than real mailboxes.
var repeatedSepRe = regexp.MustCompile(`[._-]{2,}`)

// blockedPrefixes are generic local-part substrings that never identify a
// person worth contacting.
var blockedPrefixes = []string{
	"info", "contact", "admin", "support", "noreply", "no-reply",
	"ventas", "marketing", "hello", "service", "help", "mail",
	"email", "contacto", "reservas", "hola", "webmaster", "root",
	"postmaster", "hostmaster", "abuse", "newsletter", "suscribe",
}

// blockedDomains are placeholder, test and tracking domains.
var blockedDomains = []string{
	"example.com", "test.com", "domain.com", "email.com",
	"sentry.io", "wixpress.com", "mailchimp.com", "sendgrid.net",
}

// blockedExtensions catch asset-URL false positives like icon@2x.png.
var blockedExtensions = []string{".jpg", ".png", ".gif", ".webp", ".svg", ".css", ".js"}

// Emails scans raw HTML for email addresses, lower-cases them, drops generic
// prefixes, blocked domains, asset false positives and local parts with
// repeated separators, then deduplicates preserving first-seen order.
//
// When nothing survives it returns a single empty-string candidate so callers
// can always inspect the first element instead of branching on length.
func Emails(html string) []Candidate {
	matches := emailRe.FindAllString(html, -1)

	seen := make(map[string]struct{}, len(matches))
	var out []Candidate
	for _, m := range matches {
		lower := strings.ToLower(m)
		if _, dup := seen[lower]; dup {
			continue
		}
		if !passesFilters(lower) {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, Candidate{Email: lower})
	}

	if len(out) == 0 {
		return []Candidate{{Email: ""}}
	}
	return out
}

func passesFilters(lower string) bool {
	at := strings.Index(lower, "@")
	if at < 0 {
		return false
	}
	user, domain := lower[:at], lower[at+1:]

	for _, b := range blockedPrefixes {
		if strings.Contains(user, b) {
			return false
		}
	}
	for _, d := range blockedDomains {
		if strings.Contains(domain, d) {
			return false
		}
	}
	for _, ext := range blockedExtensions {
		if strings.Contains(lower, ext) {
			return false
		}
	}
	return !repeatedSepRe.MatchString(user)
}

// IsValidEmail reports whether email matches the strict single-address
// grammar. Blank or whitespace-only input is invalid.
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return strictEmailRe.MatchString(email)
}

// DeduplicateEmails drops empty candidates and repeats, preserving
// first-seen order.
func DeduplicateEmails(items []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(items))
	var out []Candidate
	for _, it := range items {
		if it.Email == "" {
			continue
		}
		if _, dup := seen[it.Email]; dup {
			continue
		}
		seen[it.Email] = struct{}{}
		out = append(out, it)
	}
	return out
}
