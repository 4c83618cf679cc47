package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/requill-tracker/internal/model"
)

var attrSuffix = regexp.MustCompile(`@([A-Za-z_:][-A-Za-z0-9_:.]*)$`)

// splitLocator separates an optional trailing @attr from the CSS selector.
func splitLocator(loc string) (css, attr string) {
	loc = strings.TrimSpace(loc)
	if m := attrSuffix.FindStringSubmatchIndex(loc); m != nil {
		return strings.TrimSpace(loc[:m[0]]), loc[m[2]:m[3]]
	}
	return loc, ""
}

// ExtractFields resolves each field from its locator list. Locators are tried
// in order and, within a locator, matched nodes in document order; the first
// non-empty normalized value wins.
func ExtractFields(doc *goquery.Document, sel model.SelectorProfile) model.ExtractedJobInfo {
	return model.ExtractedJobInfo{
		Title:       firstMatch(doc.Selection, sel.Title),
		Company:     firstMatch(doc.Selection, sel.Company),
		Location:    firstMatch(doc.Selection, sel.Location),
		Description: firstMatch(doc.Selection, sel.Description),
		Salary:      firstMatch(doc.Selection, sel.Salary),
	}
}

func firstMatch(root *goquery.Selection, locators []string) string {
	for _, loc := range locators {
		css, attr := splitLocator(loc)
		if css == "" {
			continue
		}

		var found string
		root.Find(css).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = selectionValue(s, attr)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func selectionValue(s *goquery.Selection, attr string) string {
	if attr != "" {
		v, _ := s.Attr(attr)
		return NormalizeText(v)
	}
	if len(s.Nodes) == 0 {
		return ""
	}
	return nodeText(s.Nodes[0])
}
