package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/requill-tracker/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const defaultTitleMinLength = 5

// Catalog is the static extraction configuration: site families, the
// heuristics used by the title fallback and the skill vocabulary.
type Catalog struct {
	TitleMinLength int           `yaml:"title_min_length"`
	BrandTokens    []string      `yaml:"brand_tokens"`
	NoiseTokens    []string      `yaml:"noise_tokens"`
	Families       []FamilyEntry `yaml:"families"`
	Skills         []string      `yaml:"skills"`
}

type FamilyEntry struct {
	Family          string        `yaml:"family"`
	Label           string        `yaml:"label"`
	Domains         []string      `yaml:"domains"`
	ManualEntryHint bool          `yaml:"manual_entry_hint"`
	Proxy           ProxyEntry    `yaml:"proxy"`
	Selectors       SelectorEntry `yaml:"selectors"`
}

type ProxyEntry struct {
	RenderJS    bool   `yaml:"render_js"`
	Tier        string `yaml:"tier"`
	WaitMs      int    `yaml:"wait_ms"`
	CountryCode string `yaml:"country_code"`
	BlockAds    bool   `yaml:"block_ads"`
}

type SelectorEntry struct {
	Title       []string `yaml:"title"`
	Company     []string `yaml:"company"`
	Location    []string `yaml:"location"`
	Description []string `yaml:"description"`
	Salary      []string `yaml:"salary"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if c.TitleMinLength <= 0 {
		c.TitleMinLength = defaultTitleMinLength
	}
	if len(c.Families) == 0 {
		return nil, fmt.Errorf("catalog has no site families")
	}
	return &c, nil
}

// Profiles converts the family entries to site profiles, preserving catalog
// order. Unknown family names and proxy tiers are errors.
func (c *Catalog) Profiles() ([]model.SiteProfile, error) {
	profiles := make([]model.SiteProfile, 0, len(c.Families))
	for _, e := range c.Families {
		family, err := model.ParseSiteFamily(e.Family)
		if err != nil {
			return nil, err
		}
		tier, err := model.ParseProxyTier(e.Proxy.Tier)
		if err != nil {
			return nil, fmt.Errorf("family %s: %w", e.Family, err)
		}

		var country *string
		if e.Proxy.CountryCode != "" {
			cc := e.Proxy.CountryCode
			country = &cc
		}

		profiles = append(profiles, model.SiteProfile{
			Family:          family,
			Label:           e.Label,
			Domains:         e.Domains,
			ManualEntryHint: e.ManualEntryHint,
			Proxy: model.ProxyConfig{
				RenderJS:    e.Proxy.RenderJS,
				Tier:        tier,
				WaitMs:      e.Proxy.WaitMs,
				CountryCode: country,
				BlockAds:    e.Proxy.BlockAds,
			},
			Selectors: model.SelectorProfile{
				Title:       e.Selectors.Title,
				Company:     e.Selectors.Company,
				Location:    e.Selectors.Location,
				Description: e.Selectors.Description,
				Salary:      e.Selectors.Salary,
			},
		})
	}
	return profiles, nil
}
