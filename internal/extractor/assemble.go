package extractor

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/requill-tracker/internal/model"
)

// Assemble builds the record handed to persistence. A record is never built
// without a title.
func Assemble(info model.ExtractedJobInfo, skills []string, sourceURL string, profile model.SiteProfile) (*model.JobRecord, error) {
	title := strings.TrimSpace(info.Title)
	if title == "" {
		return nil, &ExtractionError{Reason: ReasonNoTitleResolved, URL: sourceURL}
	}
	if skills == nil {
		skills = []string{}
	}

	return &model.JobRecord{
		Title:             title,
		Company:           info.Company,
		Location:          info.Location,
		Description:       info.Description,
		ExtractedSkills:   skills,
		SourceURL:         sourceURL,
		Platform:          PlatformLabel(profile, sourceURL),
		IsRemote:          IsRemoteLocation(info.Location),
		Status:            model.JobStatusApplied,
		DescriptionLength: utf8.RuneCountInString(info.Description),
		SkillsCount:       len(skills),
	}, nil
}

func IsRemoteLocation(location string) bool {
	return strings.Contains(strings.ToLower(location), "remote")
}

// PlatformLabel is the family label, or the bare host for unknown sites.
func PlatformLabel(profile model.SiteProfile, sourceURL string) string {
	if profile.Family != model.FamilyGeneric && profile.Label != "" {
		return profile.Label
	}
	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return profile.Label
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
