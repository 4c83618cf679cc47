package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requill-tracker/internal/model"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractFields_OrderedShortCircuit(t *testing.T) {
	// Only the third locator matches; the first two must not contribute.
	doc := parseDoc(t, `<html><body>
		<div class="third">Staff Engineer</div>
	</body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{
		Title: []string{".first", "#second", ".third"},
	})
	assert.Equal(t, "Staff Engineer", info.Title)
}

func TestExtractFields_EarlierLocatorBeatsEarlierNode(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1>Generic heading</h1>
		<div class="job-title">Data Engineer</div>
	</body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{Title: []string{".job-title", "h1"}})
	assert.Equal(t, "Data Engineer", info.Title)
}

func TestExtractFields_SkipsBlankNodes(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<span class="company">   </span>
		<span class="company">Acme&nbsp;Corp</span>
		<span class="company">Other Corp</span>
	</body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{Company: []string{".company"}})
	assert.Equal(t, "Acme Corp", info.Company)
}

func TestExtractFields_Normalization(t *testing.T) {
	doc := parseDoc(t, "<html><body><h1>  Senior\n\nEngineer  </h1></body></html>")

	info := ExtractFields(doc, model.SelectorProfile{Title: []string{"h1"}})
	assert.Equal(t, "Senior Engineer", info.Title)
}

func TestExtractFields_AttributeLocator(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<meta property="og:title" content="  Platform   Engineer ">
	</head><body></body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{
		Title: []string{"h1", `meta[property="og:title"]@content`},
	})
	assert.Equal(t, "Platform Engineer", info.Title)
}

func TestExtractFields_BlockTextIsSeparated(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="desc">
		<p>We need:</p><ul><li>Go</li><li>SQL</li></ul>
		<script>var tracking = 1;</script>
	</div></body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{Description: []string{"#desc"}})
	assert.Equal(t, "We need: Go SQL", info.Description)
}

func TestExtractFields_UnresolvedFieldsAreEmpty(t *testing.T) {
	doc := parseDoc(t, `<html><body><h1>Backend Developer</h1></body></html>`)

	info := ExtractFields(doc, model.SelectorProfile{
		Title:    []string{"h1"},
		Location: []string{".location"},
	})
	assert.Equal(t, model.ExtractedJobInfo{Title: "Backend Developer"}, info)
}

func TestSplitLocator(t *testing.T) {
	tests := []struct {
		in, css, attr string
	}{
		{"h1", "h1", ""},
		{`meta[property="og:title"]@content`, `meta[property="og:title"]`, "content"},
		{`a.apply @href`, "a.apply", "href"},
		{`a[href*="@"]`, `a[href*="@"]`, ""},
		{`[data-test="job-title"]`, `[data-test="job-title"]`, ""},
	}
	for _, tt := range tests {
		css, attr := splitLocator(tt.in)
		assert.Equal(t, tt.css, css, tt.in)
		assert.Equal(t, tt.attr, attr, tt.in)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Senior Engineer", NormalizeText("  Senior\n\nEngineer  "))
	assert.Equal(t, "a b c", NormalizeText("a b\t\tc"))
	assert.Equal(t, "", NormalizeText(" \n\t "))
}
