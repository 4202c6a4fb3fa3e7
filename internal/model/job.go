package model

import (
	"context"
	"time"
)

// JobRecord is one scraped posting as stored in the jobs table.
type JobRecord struct {
	ID string `json:"id"` // stable per posting, see DeriveID
	ScrapeFields
	Enrichment *Enrichment `json:"enrichment,omitempty"` // nil until the oracle has scored it
	Flags      Flags       `json:"flags"`
	ScrapedAt  time.Time   `json:"scraping_date"`
}

// ScrapeFields holds the fixed scrape schema every adapter must produce.
// Empty strings and nil pointers mean "absent".
type ScrapeFields struct {
	Site                 string   `json:"site,omitempty"`
	JobURL               string   `json:"job_url,omitempty"`
	JobURLDirect         string   `json:"job_url_direct,omitempty"`
	Title                string   `json:"title,omitempty"`
	Company              string   `json:"company,omitempty"`
	Location             string   `json:"location,omitempty"`
	DatePosted           string   `json:"date_posted,omitempty"`
	JobType              string   `json:"job_type,omitempty"`
	Interval             string   `json:"interval,omitempty"`
	MinAmount            *float64 `json:"min_amount,omitempty"`
	MaxAmount            *float64 `json:"max_amount,omitempty"`
	Currency             string   `json:"currency,omitempty"`
	IsRemote             *bool    `json:"is_remote,omitempty"`
	JobLevel             string   `json:"job_level,omitempty"`
	JobFunction          string   `json:"job_function,omitempty"`
	Emails               string   `json:"emails,omitempty"`
	Description          string   `json:"description,omitempty"`
	CompanyURL           string   `json:"company_url,omitempty"`
	CompanyLogo          string   `json:"company_logo,omitempty"`
	CompanyNumEmployees  string   `json:"company_num_employees,omitempty"`
	CompanyRevenue       string   `json:"company_revenue,omitempty"`
	CompanyDescription   string   `json:"company_description,omitempty"`
	Skills               string   `json:"skills,omitempty"`
	WorkFromHomeType     string   `json:"work_from_home_type,omitempty"`
	CompanyIndustries    string   `json:"company_industries,omitempty"`
	CompanyActivities    string   `json:"company_activities,omitempty"`
	LanguageRequirements string   `json:"language_requirements,omitempty"`
	RoleActivities       string   `json:"role_activities,omitempty"`
}

// SubScores are the five oracle ratings, each in [0,100].
type SubScores struct {
	Competence int `json:"competence"`
	Company    int `json:"company"`
	Salary     int `json:"salary"`
	Location   int `json:"location"`
	Growth     int `json:"growth"`
}

// Assessment is what the scoring oracle returns for one posting.
type Assessment struct {
	SubScores       SubScores
	Rationale       string
	MatchedSkills   []string
	PositiveSignals []string
	NegativeSignals []string
}

// Enrichment is the oracle-derived part of a record.
type Enrichment struct {
	Score           int       `json:"llm_score"`
	SubScores       SubScores `json:"llm_sub_scores"`
	Rationale       string    `json:"llm_rationale,omitempty"`
	MatchedSkills   []string  `json:"llm_matched_skills,omitempty"`
	PositiveSignals []string  `json:"llm_positive_signals,omitempty"`
	NegativeSignals []string  `json:"llm_negative_signals,omitempty"`
	EnrichedAt      time.Time `json:"llm_enriched_at"`
}

// Flags are owned by the user. The pipeline never writes them.
type Flags struct {
	Viewed       bool       `json:"viewed"`
	Interested   bool       `json:"interested"`
	Applied      bool       `json:"applied"`
	ViewedAt     *time.Time `json:"viewed_at,omitempty"`
	InterestedAt *time.Time `json:"interested_at,omitempty"`
	AppliedAt    *time.Time `json:"applied_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// FlagUpdate is a partial flag change; nil fields are left untouched.
type FlagUpdate struct {
	Viewed     *bool   `json:"viewed"`
	Interested *bool   `json:"interested"`
	Applied    *bool   `json:"applied"`
	Notes      *string `json:"notes"`
}

// Empty reports whether the update changes nothing.
func (u FlagUpdate) Empty() bool {
	return u.Viewed == nil && u.Interested == nil && u.Applied == nil && u.Notes == nil
}

// Enriched reports whether the record carries an llm_score.
func (r JobRecord) Enriched() bool {
	return r.Enrichment != nil
}

// Validate checks the only hard requirement on a record: its identity.
func (r JobRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Index: -1, Reason: "missing id"}
	}
	return nil
}

// Batch is the uncombined output of one source invocation.
type Batch struct {
	Source  string
	Records []JobRecord
}

// BatchSource produces one Batch per run (a scraping adapter's output).
type BatchSource interface {
	Name() string
	FetchBatch(ctx context.Context) (Batch, error)
}

// Notifier sends notifications for freshly scored matches.
type Notifier interface {
	Notify(jobs []JobRecord) error
}

// JobFilter decides whether a scraped record is kept at ingest.
type JobFilter interface {
	Match(job JobRecord) bool
}
