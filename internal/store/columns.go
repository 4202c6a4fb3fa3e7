package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// ColumnGroup classifies a jobs column for merge purposes.
type ColumnGroup int

const (
	GroupKey ColumnGroup = iota
	GroupScrape
	GroupEnrichment
	GroupFlags
	GroupMetadata
)

func (g ColumnGroup) String() string {
	switch g {
	case GroupKey:
		return "key"
	case GroupScrape:
		return "scrape"
	case GroupEnrichment:
		return "enrichment"
	case GroupFlags:
		return "flags"
	case GroupMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// timeLayout keeps stored timestamps lexically ordered.
const timeLayout = "2006-01-02T15:04:05Z"

// rowTarget is where a scanned row lands. Enrichment columns are collected
// separately and attached only when llm_score is present.
type rowTarget struct {
	rec    *model.JobRecord
	enr    model.Enrichment
	scored bool
}

type column struct {
	name  string
	group ColumnGroup
	value func(r *model.JobRecord) any
	dest  func(t *rowTarget) any
}

// jobColumns mirrors migrations/0001_create_jobs.up.sql in table order.
var jobColumns = []column{
	{"id", GroupKey, func(r *model.JobRecord) any { return r.ID }, func(t *rowTarget) any { return textDest{&t.rec.ID} }},

	textCol("site", func(r *model.JobRecord) *string { return &r.Site }),
	textCol("job_url", func(r *model.JobRecord) *string { return &r.JobURL }),
	textCol("job_url_direct", func(r *model.JobRecord) *string { return &r.JobURLDirect }),
	textCol("title", func(r *model.JobRecord) *string { return &r.Title }),
	textCol("company", func(r *model.JobRecord) *string { return &r.Company }),
	textCol("location", func(r *model.JobRecord) *string { return &r.Location }),
	textCol("date_posted", func(r *model.JobRecord) *string { return &r.DatePosted }),
	textCol("job_type", func(r *model.JobRecord) *string { return &r.JobType }),
	textCol("interval", func(r *model.JobRecord) *string { return &r.Interval }),
	realCol("min_amount", func(r *model.JobRecord) **float64 { return &r.MinAmount }),
	realCol("max_amount", func(r *model.JobRecord) **float64 { return &r.MaxAmount }),
	textCol("currency", func(r *model.JobRecord) *string { return &r.Currency }),
	{"is_remote", GroupScrape,
		func(r *model.JobRecord) any {
			if r.IsRemote == nil {
				return nil
			}
			return boolInt(*r.IsRemote)
		},
		func(t *rowTarget) any { return boolPtrDest{&t.rec.IsRemote} }},
	textCol("job_level", func(r *model.JobRecord) *string { return &r.JobLevel }),
	textCol("job_function", func(r *model.JobRecord) *string { return &r.JobFunction }),
	textCol("emails", func(r *model.JobRecord) *string { return &r.Emails }),
	textCol("description", func(r *model.JobRecord) *string { return &r.Description }),
	textCol("company_url", func(r *model.JobRecord) *string { return &r.CompanyURL }),
	textCol("company_logo", func(r *model.JobRecord) *string { return &r.CompanyLogo }),
	textCol("company_num_employees", func(r *model.JobRecord) *string { return &r.CompanyNumEmployees }),
	textCol("company_revenue", func(r *model.JobRecord) *string { return &r.CompanyRevenue }),
	textCol("company_description", func(r *model.JobRecord) *string { return &r.CompanyDescription }),
	textCol("skills", func(r *model.JobRecord) *string { return &r.Skills }),
	textCol("work_from_home_type", func(r *model.JobRecord) *string { return &r.WorkFromHomeType }),
	textCol("company_industries", func(r *model.JobRecord) *string { return &r.CompanyIndustries }),
	textCol("company_activities", func(r *model.JobRecord) *string { return &r.CompanyActivities }),
	textCol("language_requirements", func(r *model.JobRecord) *string { return &r.LanguageRequirements }),
	textCol("role_activities", func(r *model.JobRecord) *string { return &r.RoleActivities }),

	{"llm_score", GroupEnrichment,
		enrValue(func(e *model.Enrichment) any { return e.Score }),
		func(t *rowTarget) any { return intDest{p: &t.enr.Score, valid: &t.scored} }},
	subScoreCol("llm_score_competence", func(s *model.SubScores) *int { return &s.Competence }),
	subScoreCol("llm_score_company", func(s *model.SubScores) *int { return &s.Company }),
	subScoreCol("llm_score_salary", func(s *model.SubScores) *int { return &s.Salary }),
	subScoreCol("llm_score_location", func(s *model.SubScores) *int { return &s.Location }),
	subScoreCol("llm_score_growth", func(s *model.SubScores) *int { return &s.Growth }),
	{"llm_rationale", GroupEnrichment,
		enrValue(func(e *model.Enrichment) any { return nullText(e.Rationale) }),
		func(t *rowTarget) any { return textDest{&t.enr.Rationale} }},
	listCol("llm_matched_skills", func(e *model.Enrichment) *[]string { return &e.MatchedSkills }),
	listCol("llm_positive_signals", func(e *model.Enrichment) *[]string { return &e.PositiveSignals }),
	listCol("llm_negative_signals", func(e *model.Enrichment) *[]string { return &e.NegativeSignals }),
	{"llm_enriched_at", GroupEnrichment,
		enrValue(func(e *model.Enrichment) any { return formatTime(e.EnrichedAt) }),
		func(t *rowTarget) any { return timeDest{&t.enr.EnrichedAt} }},

	flagCol("viewed", func(f *model.Flags) *bool { return &f.Viewed }),
	flagCol("interested", func(f *model.Flags) *bool { return &f.Interested }),
	flagCol("applied", func(f *model.Flags) *bool { return &f.Applied }),
	flagTimeCol("viewed_at", func(f *model.Flags) **time.Time { return &f.ViewedAt }),
	flagTimeCol("interested_at", func(f *model.Flags) **time.Time { return &f.InterestedAt }),
	flagTimeCol("applied_at", func(f *model.Flags) **time.Time { return &f.AppliedAt }),
	{"notes", GroupFlags,
		func(r *model.JobRecord) any { return nullText(r.Flags.Notes) },
		func(t *rowTarget) any { return textDest{&t.rec.Flags.Notes} }},

	{"scraping_date", GroupMetadata,
		func(r *model.JobRecord) any { return formatTime(r.ScrapedAt) },
		func(t *rowTarget) any { return timeDest{&t.rec.ScrapedAt} }},
}

// selectList is the column list used by every read.
var selectList = columnNames(jobColumns)

func columnNames(cols []column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.name)
	}
	return strings.Join(names, ", ")
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.JobRecord, error) {
	var rec model.JobRecord
	t := &rowTarget{rec: &rec}
	dests := make([]any, len(jobColumns))
	for i, c := range jobColumns {
		dests[i] = c.dest(t)
	}
	if err := s.Scan(dests...); err != nil {
		return model.JobRecord{}, err
	}
	if t.scored {
		enr := t.enr
		rec.Enrichment = &enr
	}
	return rec, nil
}

func textCol(name string, field func(r *model.JobRecord) *string) column {
	return column{name, GroupScrape,
		func(r *model.JobRecord) any { return nullText(*field(r)) },
		func(t *rowTarget) any { return textDest{field(t.rec)} }}
}

func realCol(name string, field func(r *model.JobRecord) **float64) column {
	return column{name, GroupScrape,
		func(r *model.JobRecord) any {
			if p := *field(r); p != nil {
				return *p
			}
			return nil
		},
		func(t *rowTarget) any { return realDest{field(t.rec)} }}
}

func enrValue(get func(e *model.Enrichment) any) func(r *model.JobRecord) any {
	return func(r *model.JobRecord) any {
		if r.Enrichment == nil {
			return nil
		}
		return get(r.Enrichment)
	}
}

func subScoreCol(name string, field func(s *model.SubScores) *int) column {
	return column{name, GroupEnrichment,
		enrValue(func(e *model.Enrichment) any { return *field(&e.SubScores) }),
		func(t *rowTarget) any { return intDest{p: field(&t.enr.SubScores)} }}
}

func listCol(name string, field func(e *model.Enrichment) *[]string) column {
	return column{name, GroupEnrichment,
		enrValue(func(e *model.Enrichment) any { return encodeList(*field(e)) }),
		func(t *rowTarget) any { return listDest{field(&t.enr)} }}
}

func flagCol(name string, field func(f *model.Flags) *bool) column {
	return column{name, GroupFlags,
		func(r *model.JobRecord) any { return boolInt(*field(&r.Flags)) },
		func(t *rowTarget) any { return boolDest{field(&t.rec.Flags)} }}
}

func flagTimeCol(name string, field func(f *model.Flags) **time.Time) column {
	return column{name, GroupFlags,
		func(r *model.JobRecord) any {
			if p := *field(&r.Flags); p != nil {
				return formatTime(*p)
			}
			return nil
		},
		func(t *rowTarget) any { return timePtrDest{field(&t.rec.Flags)} }}
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func encodeList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return string(b)
}

// Scan destinations. modernc returns TEXT as string, INTEGER as int64 and
// REAL as float64; []byte is accepted for robustness.

type textDest struct{ p *string }

func (d textDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.p = ""
	case string:
		*d.p = v
	case []byte:
		*d.p = string(v)
	default:
		*d.p = fmt.Sprint(v)
	}
	return nil
}

type realDest struct{ p **float64 }

func (d realDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.p = nil
	case float64:
		*d.p = &v
	case int64:
		f := float64(v)
		*d.p = &f
	default:
		return fmt.Errorf("unexpected REAL value %T", src)
	}
	return nil
}

type intDest struct {
	p     *int
	valid *bool
}

func (d intDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.p = 0
		return nil
	case int64:
		*d.p = int(v)
	case float64:
		*d.p = int(v)
	default:
		return fmt.Errorf("unexpected INTEGER value %T", src)
	}
	if d.valid != nil {
		*d.valid = true
	}
	return nil
}

type boolDest struct{ p *bool }

func (d boolDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.p = false
	case int64:
		*d.p = v != 0
	case bool:
		*d.p = v
	default:
		return fmt.Errorf("unexpected boolean value %T", src)
	}
	return nil
}

type boolPtrDest struct{ p **bool }

func (d boolPtrDest) Scan(src any) error {
	if src == nil {
		*d.p = nil
		return nil
	}
	var b bool
	if err := (boolDest{&b}).Scan(src); err != nil {
		return err
	}
	*d.p = &b
	return nil
}

type timeDest struct{ p *time.Time }

func (d timeDest) Scan(src any) error {
	var s string
	if err := (textDest{&s}).Scan(src); err != nil {
		return err
	}
	if s == "" {
		*d.p = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	*d.p = t.UTC()
	return nil
}

type timePtrDest struct{ p **time.Time }

func (d timePtrDest) Scan(src any) error {
	if src == nil {
		*d.p = nil
		return nil
	}
	var t time.Time
	if err := (timeDest{&t}).Scan(src); err != nil {
		return err
	}
	if t.IsZero() {
		*d.p = nil
		return nil
	}
	*d.p = &t
	return nil
}

type listDest struct{ p *[]string }

func (d listDest) Scan(src any) error {
	var s string
	if err := (textDest{&s}).Scan(src); err != nil {
		return err
	}
	if s == "" {
		*d.p = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return fmt.Errorf("decoding list column: %w", err)
	}
	*d.p = list
	return nil
}
