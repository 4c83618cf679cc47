package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	titleSeparator    = " - "
	titleScanLines    = 10
	titleLineMinRunes = 10
	titleLineMaxRunes = 100
)

type titleStrategy func(doc *goquery.Document) string

// TitleResolver guesses a posting title when no structural locator matched.
type TitleResolver struct {
	brandTokens []string
	noiseTokens []string
	minLength   int
}

func NewTitleResolver(brandTokens, noiseTokens []string, minLength int) *TitleResolver {
	return &TitleResolver{
		brandTokens: lowerAll(brandTokens),
		noiseTokens: lowerAll(noiseTokens),
		minLength:   minLength,
	}
}

// Resolve runs the fallback strategies in order and returns the first
// non-empty result, or "" when none produced a plausible title.
func (r *TitleResolver) Resolve(doc *goquery.Document) string {
	for _, strategy := range []titleStrategy{r.fromTitleTag, r.fromVisibleText} {
		if title := strategy(doc); title != "" {
			return title
		}
	}
	return ""
}

// fromTitleTag takes the first " - " segment of the document title, as in
// "Backend Engineer - Acme - JobSite".
func (r *TitleResolver) fromTitleTag(doc *goquery.Document) string {
	raw := NormalizeText(doc.Find("title").First().Text())
	if raw == "" {
		return ""
	}
	candidate := strings.TrimSpace(strings.SplitN(raw, titleSeparator, 2)[0])
	if utf8.RuneCountInString(candidate) < r.minLength {
		return ""
	}
	if containsAny(strings.ToLower(candidate), r.brandTokens) {
		return ""
	}
	return candidate
}

// fromVisibleText scans the first lines of rendered body text for something
// shaped like a title.
func (r *TitleResolver) fromVisibleText(doc *goquery.Document) string {
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	if len(root.Nodes) == 0 {
		return ""
	}

	for _, line := range visibleLines(root.Nodes[0], titleScanLines) {
		if r.plausibleLine(line) {
			return line
		}
	}
	return ""
}

func (r *TitleResolver) plausibleLine(line string) bool {
	n := utf8.RuneCountInString(line)
	if n <= titleLineMinRunes || n >= titleLineMaxRunes {
		return false
	}
	if strings.IndexFunc(line, unicode.IsLetter) < 0 {
		return false
	}
	lower := strings.ToLower(line)
	return !containsAny(lower, r.noiseTokens) && !containsAny(lower, r.brandTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
