package extractor

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/requill-tracker/internal/model"
)

type domainFragment struct {
	fragment string
	family   model.SiteFamily
}

// ProfileTable maps site families to their extraction recipe and classifies
// URLs by domain fragment. It is built once and never mutated.
type ProfileTable struct {
	profiles  map[model.SiteFamily]model.SiteProfile
	order     []model.SiteFamily
	fragments []domainFragment
}

// NewProfileTable validates profiles and builds the lookup table. Domain
// fragments are matched in the order the profiles are given.
func NewProfileTable(profiles []model.SiteProfile) (*ProfileTable, error) {
	t := &ProfileTable{
		profiles: make(map[model.SiteFamily]model.SiteProfile, len(profiles)),
	}

	for _, p := range profiles {
		if _, err := model.ParseSiteFamily(string(p.Family)); err != nil {
			return nil, err
		}
		if _, dup := t.profiles[p.Family]; dup {
			return nil, fmt.Errorf("duplicate site family %s", p.Family)
		}
		if err := validateSelectors(p.Family, p.Selectors); err != nil {
			return nil, err
		}

		t.profiles[p.Family] = p
		t.order = append(t.order, p.Family)

		if p.Family == model.FamilyGeneric {
			continue
		}
		for _, d := range p.Domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				return nil, fmt.Errorf("family %s has an empty domain fragment", p.Family)
			}
			t.fragments = append(t.fragments, domainFragment{fragment: d, family: p.Family})
		}
	}

	generic, ok := t.profiles[model.FamilyGeneric]
	if !ok {
		return nil, fmt.Errorf("missing %s site profile", model.FamilyGeneric)
	}
	for field, locators := range selectorFields(generic.Selectors) {
		if len(locators) == 0 {
			return nil, fmt.Errorf("%s profile has no %s locators", model.FamilyGeneric, field)
		}
	}

	return t, nil
}

// Select returns the profile of the first family whose domain fragment occurs
// in the lowercased URL, or the generic profile.
func (t *ProfileTable) Select(rawURL string) model.SiteProfile {
	u := strings.ToLower(rawURL)
	for _, f := range t.fragments {
		if strings.Contains(u, f.fragment) {
			return t.profiles[f.family]
		}
	}
	return t.profiles[model.FamilyGeneric]
}

func (t *ProfileTable) Profile(family model.SiteFamily) (model.SiteProfile, bool) {
	p, ok := t.profiles[family]
	return p, ok
}

// All returns every profile in catalog order.
func (t *ProfileTable) All() []model.SiteProfile {
	out := make([]model.SiteProfile, 0, len(t.order))
	for _, f := range t.order {
		out = append(out, t.profiles[f])
	}
	return out
}

func selectorFields(s model.SelectorProfile) map[string][]string {
	return map[string][]string{
		"title":       s.Title,
		"company":     s.Company,
		"location":    s.Location,
		"description": s.Description,
		"salary":      s.Salary,
	}
}

func validateSelectors(family model.SiteFamily, s model.SelectorProfile) error {
	for field, locators := range selectorFields(s) {
		for _, loc := range locators {
			css, _ := splitLocator(loc)
			if css == "" {
				return fmt.Errorf("family %s: empty %s locator", family, field)
			}
			if _, err := cascadia.Compile(css); err != nil {
				return fmt.Errorf("family %s: invalid %s locator %q: %w", family, field, loc, err)
			}
		}
	}
	return nil
}
