// Package filter decides which scraped postings are kept at ingest.
package filter

import (
	"strings"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// Rules configures a KeywordFilter. All matching is case-insensitive
// substring matching; empty include lists pass everything.
type Rules struct {
	TitleKeywords    []string
	TitleExclude     []string
	Locations        []string
	ExcludeLocations []string
}

// KeywordFilter keeps postings whose title contains an include keyword and no
// exclude keyword, and whose location passes the same test.
type KeywordFilter struct {
	titleInclude    []string
	titleExclude    []string
	locationInclude []string
	locationExclude []string
}

// NewKeywordFilter lower-cases the rules once up front.
func NewKeywordFilter(r Rules) *KeywordFilter {
	return &KeywordFilter{
		titleInclude:    lower(r.TitleKeywords),
		titleExclude:    lower(r.TitleExclude),
		locationInclude: lower(r.Locations),
		locationExclude: lower(r.ExcludeLocations),
	}
}

// Empty reports whether the filter keeps every posting.
func (f *KeywordFilter) Empty() bool {
	return len(f.titleInclude)+len(f.titleExclude)+len(f.locationInclude)+len(f.locationExclude) == 0
}

// Match implements model.JobFilter.
func (f *KeywordFilter) Match(job model.JobRecord) bool {
	title := strings.ToLower(job.Title)
	if !passes(title, f.titleInclude, f.titleExclude) {
		return false
	}

	location := strings.ToLower(job.Location)
	return passes(location, f.locationInclude, f.locationExclude)
}

func passes(s string, include, exclude []string) bool {
	if containsAny(s, exclude) {
		return false
	}
	return len(include) == 0 || containsAny(s, include)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
