package model

import "fmt"

// SiteFamily groups job-board domains that share markup and anti-bot behaviour.
type SiteFamily string

const (
	FamilyProfessionalNetwork SiteFamily = "professional_network"
	FamilyAggregatorA         SiteFamily = "aggregator_a"
	FamilyAggregatorB         SiteFamily = "aggregator_b"
	FamilyReviewSite          SiteFamily = "review_site"
	FamilyRegionalInternshala SiteFamily = "regional_internshala"
	FamilyRegionalFoundit     SiteFamily = "regional_foundit"
	FamilyRegionalShine       SiteFamily = "regional_shine"
	FamilyRegionalTimesJobs   SiteFamily = "regional_timesjobs"
	FamilyGeneric             SiteFamily = "generic"
)

// KnownFamilies lists every family tag in declaration order.
var KnownFamilies = []SiteFamily{
	FamilyProfessionalNetwork,
	FamilyAggregatorA,
	FamilyAggregatorB,
	FamilyReviewSite,
	FamilyRegionalInternshala,
	FamilyRegionalFoundit,
	FamilyRegionalShine,
	FamilyRegionalTimesJobs,
	FamilyGeneric,
}

func ParseSiteFamily(s string) (SiteFamily, error) {
	for _, f := range KnownFamilies {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown site family %q", s)
}

type ProxyTier string

const (
	ProxyTierBasic   ProxyTier = "basic"
	ProxyTierPremium ProxyTier = "premium"
	ProxyTierStealth ProxyTier = "stealth"
)

func ParseProxyTier(s string) (ProxyTier, error) {
	switch ProxyTier(s) {
	case ProxyTierBasic, ProxyTierPremium, ProxyTierStealth:
		return ProxyTier(s), nil
	case "":
		return ProxyTierBasic, nil
	}
	return "", fmt.Errorf("unknown proxy tier %q", s)
}

// ProxyConfig is the scraping-proxy request shape for one site family.
type ProxyConfig struct {
	RenderJS    bool      `json:"render_js"`
	Tier        ProxyTier `json:"tier"`
	WaitMs      int       `json:"wait_ms"`
	CountryCode *string   `json:"country_code,omitempty"`
	BlockAds    bool      `json:"block_ads"`
}

// SelectorProfile maps each extracted field to CSS locators, most specific first.
type SelectorProfile struct {
	Title       []string `json:"title"`
	Company     []string `json:"company"`
	Location    []string `json:"location"`
	Description []string `json:"description"`
	Salary      []string `json:"salary"`
}

// SiteProfile is the full per-family extraction recipe.
type SiteProfile struct {
	Family          SiteFamily      `json:"family"`
	Label           string          `json:"label"`
	Domains         []string        `json:"domains,omitempty"`
	ManualEntryHint bool            `json:"manual_entry_hint"`
	Proxy           ProxyConfig     `json:"proxy"`
	Selectors       SelectorProfile `json:"-"`
}
