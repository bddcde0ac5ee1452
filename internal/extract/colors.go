package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CleanResult is the cleaned content bundle consumed by icebreaker
// generation: visible text capped at 4000 characters plus up to three
// representative brand colors.
type CleanResult struct {
	CleanText string
	Colors    []string
	Primary   string
	Secondary string
	Accent    string
	Correo    string
	Web       string
}

// Fallback brand colors used when a page yields fewer than three usable ones.
const (
	FallbackPrimary   = "#2563eb"
	FallbackSecondary = "#1e40af"
	FallbackAccent    = "#3b82f6"
)

const cleanTextLimit = 4000

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`</?[^>]+(>|$)`)
	spaceRe  = regexp.MustCompile(`\s+`)

	hexColorRe = regexp.MustCompile(`#([0-9a-fA-F]{3}){1,2}\b`)
	rgbColorRe = regexp.MustCompile(`(?i)rgba?\s*\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}(?:\s*,\s*[\d.]+)?\s*\)`)
	rgbTripleRe = regexp.MustCompile(`(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)
	inlineCSSRe = regexp.MustCompile(`(?i)(?:background-color|color|border-color)\s*:\s*([^;"']+)`)
)

// CleanHTML strips script/style blocks and tags from html, collapses
// whitespace and truncates to 4000 characters, then scans the raw HTML for
// brand colors (hex, rgb()/rgba(), inline CSS declarations). Colors whose
// perceptual brightness falls outside (30, 240) are discarded as near-black
// or near-white. The first three survivors become primary/secondary/accent,
// padded with fixed blue fallbacks.
//
// Empty or placeholder input returns an error together with a still-usable
// result carrying the fallback colors, so outreach can proceed with a
// generic design.
func CleanHTML(html, correo, web string) (CleanResult, error) {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" || trimmed == "{}" || trimmed == "undefined" {
		return CleanResult{
			Primary:   FallbackPrimary,
			Secondary: FallbackSecondary,
			Accent:    FallbackAccent,
			Correo:    correo,
			Web:       web,
		}, eris.New("extract: no page HTML to clean")
	}

	text := scriptRe.ReplaceAllString(html, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if len(text) > cleanTextLimit {
		text = text[:cleanTextLimit]
	}

	colors := usableColors(collectColors(html))
	if len(colors) > 5 {
		colors = colors[:5]
	}

	res := CleanResult{
		CleanText: text,
		Colors:    colors,
		Primary:   FallbackPrimary,
		Secondary: FallbackSecondary,
		Accent:    FallbackAccent,
		Correo:    correo,
		Web:       web,
	}
	if len(colors) > 0 {
		res.Primary = colors[0]
	}
	if len(colors) > 1 {
		res.Secondary = colors[1]
	}
	if len(colors) > 2 {
		res.Accent = colors[2]
	}
	return res, nil
}

// collectColors gathers candidate colors from raw HTML in first-seen order.
func collectColors(html string) []string {
	seen := make(map[string]struct{})
	var found []string
	add := func(c string) {
		c = strings.ToLower(c)
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		found = append(found, c)
	}

	for _, hex := range hexColorRe.FindAllString(html, -1) {
		add(hex)
	}

	for _, rgb := range rgbColorRe.FindAllString(html, -1) {
		if hex, ok := rgbToHex(rgb); ok {
			add(hex)
		}
	}

	for _, m := range inlineCSSRe.FindAllStringSubmatch(html, -1) {
		value := strings.TrimSpace(m[1])
		switch {
		case strings.HasPrefix(value, "#"):
			add(value)
		case strings.HasPrefix(strings.ToLower(value), "rgb"):
			if hex, ok := rgbToHex(value); ok {
				add(hex)
			}
		}
	}

	return found
}

func rgbToHex(rgb string) (string, bool) {
	m := rgbTripleRe.FindStringSubmatch(rgb)
	if m == nil {
		return "", false
	}
	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("#%02x%02x%02x", r, g, b), true
}

// usableColors keeps hex colors whose brightness sits strictly between 30 and
// 240 on the 0–255 scale. Colors that fail to parse are dropped.
func usableColors(colors []string) []string {
	var out []string
	for _, c := range colors {
		if !strings.HasPrefix(c, "#") || len(c) < 4 {
			continue
		}
		hex := c[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) < 6 {
			continue
		}
		r, err1 := strconv.ParseUint(hex[0:2], 16, 16)
		g, err2 := strconv.ParseUint(hex[2:4], 16, 16)
		b, err3 := strconv.ParseUint(hex[4:6], 16, 16)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		brightness := (float64(r)*299 + float64(g)*587 + float64(b)*114) / 1000
		if brightness > 30 && brightness < 240 {
			out = append(out, c)
		}
	}
	return out
}
