package extract

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Place is a discovery candidate: a business website URI returned by the
// place-search collaborator.
type Place struct {
	WebsiteURI string
}

// LeadURL is a normalized lead website URL ready for fetching.
type LeadURL struct {
	CleanURL    string
	OriginalURL string
}

var schemeRe = regexp.MustCompile(`(?i)^https?://(www\.)?`)

var hasSchemeRe = regexp.MustCompile(`(?i)^https?://`)

var wwwAfterSchemeRe = regexp.MustCompile(`(?i)^(https://)www\.`)

// badURLPatterns disqualify platform, social and tracking URLs that never
// lead to a scrapeable business site.
var badURLPatterns = []string{
	"schema",
	"google",
	"gstatic",
	"whatsapp",
	"wa.link",
	"facebook",
	"wa.me",
	"instagram",
	"twitter",
	"linkedin",
	"youtube",
}

// NormalizeWebURL strips the scheme and a leading "www." and re-adds
// "https://". Used on discovery candidates before dedup so that
// http://www.foo.com and https://foo.com collapse to one key.
func NormalizeWebURL(raw string) string {
	return schemeRe.ReplaceAllString(raw, "https://")
}

// NormalizeLeadURL prepares a stored lead URL for fetching: default scheme,
// https forced, "www." stripped, trailing slash guaranteed. It fails only on
// blank input.
func NormalizeLeadURL(raw string) (LeadURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LeadURL{}, eris.New("extract: empty lead url")
	}

	u := trimmed
	if !hasSchemeRe.MatchString(u) {
		u = "https://" + u
	}
	if strings.HasPrefix(strings.ToLower(u), "http://") {
		u = "https://" + u[len("http://"):]
	}
	u = wwwAfterSchemeRe.ReplaceAllString(u, "$1")
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}

	return LeadURL{CleanURL: u, OriginalURL: u}, nil
}

// FilterBadURLs keeps places whose URL contains none of the blocked platform
// substrings.
func FilterBadURLs(places []Place) []Place {
	var out []Place
	for _, p := range places {
		lower := strings.ToLower(p.WebsiteURI)
		blocked := false
		for _, pat := range badURLPatterns {
			if strings.Contains(lower, pat) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, p)
		}
	}
	return out
}

// DeduplicateByWebsite drops places repeating an already-seen WebsiteURI,
// preserving first-seen order.
func DeduplicateByWebsite(places []Place) []Place {
	seen := make(map[string]struct{}, len(places))
	var out []Place
	for _, p := range places {
		if _, dup := seen[p.WebsiteURI]; dup {
			continue
		}
		seen[p.WebsiteURI] = struct{}{}
		out = append(out, p)
	}
	return out
}
