package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHTML_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "{}", "undefined"} {
		got, err := CleanHTML(in, "jane@acme.com", "https://acme.com/")

		require.Error(t, err, "input %q", in)
		assert.Empty(t, got.CleanText)
		assert.Equal(t, FallbackPrimary, got.Primary)
		assert.Equal(t, FallbackSecondary, got.Secondary)
		assert.Equal(t, FallbackAccent, got.Accent)
		assert.Equal(t, "jane@acme.com", got.Correo)
		assert.Equal(t, "https://acme.com/", got.Web)
	}
}

func TestCleanHTML_StripsScriptsStylesAndTags(t *testing.T) {
	html := `<html><head>
<script>var tracking = "evil";</script>
<style>body { color: red; }</style>
</head><body><h1>Clínica Dental</h1><p>Tratamientos de ortodoncia</p></body></html>`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.NotContains(t, got.CleanText, "tracking")
	assert.NotContains(t, got.CleanText, "color: red")
	assert.NotContains(t, got.CleanText, "<h1>")
	assert.Contains(t, got.CleanText, "Clínica Dental")
	assert.Contains(t, got.CleanText, "Tratamientos de ortodoncia")
}

func TestCleanHTML_TruncatesAt4000(t *testing.T) {
	html := "<p>" + strings.Repeat("palabra ", 1000) + "</p>"

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Len(t, got.CleanText, 4000)
}

func TestCleanHTML_ExtractsHexColors(t *testing.T) {
	html := `<div style="background-color: #1a73e8">x</div><span color="#d93025">y</span>`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Equal(t, "#1a73e8", got.Primary)
	assert.Equal(t, "#d93025", got.Secondary)
	assert.Equal(t, FallbackAccent, got.Accent)
	assert.Equal(t, []string{"#1a73e8", "#d93025"}, got.Colors)
}

func TestCleanHTML_ConvertsRGBToHex(t *testing.T) {
	html := `<div style="color: rgb(26, 115, 232)">x</div><p>rgba(217, 48, 37, 0.5)</p>`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Contains(t, got.Colors, "#1a73e8")
	assert.Contains(t, got.Colors, "#d93025")
}

func TestCleanHTML_BrightnessFilter(t *testing.T) {
	// Near-black and near-white never survive; mid-brightness does.
	html := `#000000 #ffffff #111111 #fefefe #1a73e8`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"#1a73e8"}, got.Colors)
	assert.NotContains(t, got.Colors, "#000000")
	assert.NotContains(t, got.Colors, "#ffffff")
}

func TestCleanHTML_ExpandsShortHex(t *testing.T) {
	// #06c expands to #0066cc, brightness in range.
	html := `<a style="color: #06c;">link</a>`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"#06c"}, got.Colors)
	assert.Equal(t, "#06c", got.Primary)
}

func TestCleanHTML_CapsAtFiveColors(t *testing.T) {
	html := `#1a73e8 #d93025 #188038 #f29900 #9334e6 #e8710a #12b5cb`

	got, err := CleanHTML(html, "", "")

	require.NoError(t, err)
	assert.Len(t, got.Colors, 5)
	assert.Equal(t, "#1a73e8", got.Primary)
	assert.Equal(t, "#d93025", got.Secondary)
	assert.Equal(t, "#188038", got.Accent)
}
