package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmails_FiltersGenericPrefixes(t *testing.T) {
	html := `<p>Write to contact@foo.com or bob@foo.com for details.</p>`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "bob@foo.com"}}, got)
}

func TestEmails_BlockedPrefixIsSubstringMatch(t *testing.T) {
	// "informatica" contains "info"; "mailbox" contains "mail".
	html := `informatica@acme.com mailbox@acme.com jane@acme.com`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "jane@acme.com"}}, got)
}

func TestEmails_BlockedDomains(t *testing.T) {
	html := `a@example.com b@test.com c@sub.sentry.io jane@acme.com d@wixpress.com`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "jane@acme.com"}}, got)
}

func TestEmails_AssetFalsePositives(t *testing.T) {
	html := `icon@2x.png.com real@acme.com logo@header.svg.net style@main.css.org`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "real@acme.com"}}, got)
}

func TestEmails_RepeatedSeparatorsInLocalPart(t *testing.T) {
	html := `a..b@acme.com x__y@acme.com w--z@acme.com jane@acme.com`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "jane@acme.com"}}, got)
}

func TestEmails_LowercasesAndDeduplicates(t *testing.T) {
	html := `Jane@Acme.com jane@acme.com JANE@ACME.COM bob@acme.com`

	got := Emails(html)

	assert.Equal(t, []Candidate{{Email: "jane@acme.com"}, {Email: "bob@acme.com"}}, got)
}

func TestEmails_NoMatchesReturnsSentinel(t *testing.T) {
	got := Emails("<html><body>nothing here</body></html>")

	assert.Equal(t, []Candidate{{Email: ""}}, got)
}

func TestEmails_AllFilteredReturnsSentinel(t *testing.T) {
	got := Emails("info@acme.com contact@acme.com")

	assert.Equal(t, []Candidate{{Email: ""}}, got)
}

func TestIsValidEmail(t *testing.T) {
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("   "))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.True(t, IsValidEmail("a@b.co"))
	assert.True(t, IsValidEmail("jane.doe+tag@acme.com"))
}

func TestDeduplicateEmails(t *testing.T) {
	in := []Candidate{
		{Email: "x@y.com"},
		{Email: "x@y.com"},
		{Email: ""},
		{Email: "z@y.com"},
	}

	got := DeduplicateEmails(in)

	assert.Equal(t, []Candidate{{Email: "x@y.com"}, {Email: "z@y.com"}}, got)
}

func TestDeduplicateEmails_Empty(t *testing.T) {
	assert.Empty(t, DeduplicateEmails(nil))
	assert.Empty(t, DeduplicateEmails([]Candidate{{Email: ""}}))
}
