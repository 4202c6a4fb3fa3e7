package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/tidwall/gjson"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

const maxRationale = 500

// LLMJobScorer rates job postings against a candidate profile using an LLM.
type LLMJobScorer struct {
	provider LLMProvider
	tmpl     *template.Template
	profile  string
	logger   *slog.Logger
}

// NewLLMJobScorer creates a scorer. An empty profile falls back to DefaultProfile.
func NewLLMJobScorer(provider LLMProvider, tmpl *template.Template, profile string, logger *slog.Logger) *LLMJobScorer {
	if strings.TrimSpace(profile) == "" {
		profile = DefaultProfile
	}
	return &LLMJobScorer{
		provider: provider,
		tmpl:     tmpl,
		profile:  strings.TrimSpace(profile),
		logger:   logger,
	}
}

// promptData is what the scoring template sees.
type promptData struct {
	Profile     string
	Title       string
	Company     string
	Location    string
	Remote      string
	Salary      string
	JobType     string
	Description string
}

// Score makes exactly one LLM call for job. Postings without a description
// are still scored on their title and company.
func (s *LLMJobScorer) Score(ctx context.Context, job model.JobRecord) (model.Assessment, error) {
	var promptBuf bytes.Buffer
	if err := s.tmpl.Execute(&promptBuf, promptData{
		Profile:     s.profile,
		Title:       job.Title,
		Company:     job.Company,
		Location:    job.Location,
		Remote:      remoteLabel(job),
		Salary:      salaryLabel(job),
		JobType:     job.JobType,
		Description: strings.TrimSpace(job.Description),
	}); err != nil {
		return model.Assessment{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := s.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return model.Assessment{}, fmt.Errorf("llm complete: %w", err)
	}

	a, err := parseAssessment(raw)
	if err != nil {
		s.logger.Debug("unparseable llm response", "id", job.ID, "response", truncate(raw, 200))
		return model.Assessment{}, fmt.Errorf("parse assessment: %w", err)
	}
	return a, nil
}

var subScoreKeys = []string{"competence", "company", "salary", "location", "growth"}

// parseAssessment reads the LLM answer. Models sometimes wrap the object in
// prose or code fences, so only the span from the first '{' to the last '}'
// is considered.
func parseAssessment(raw string) (model.Assessment, error) {
	js := extractJSON(raw)
	if js == "" || !gjson.Valid(js) {
		return model.Assessment{}, fmt.Errorf("response is not a JSON object")
	}
	doc := gjson.Parse(js)

	vals := make(map[string]int, len(subScoreKeys))
	for _, key := range subScoreKeys {
		v := doc.Get("scores." + key)
		if !v.Exists() {
			return model.Assessment{}, fmt.Errorf("missing sub-score %q", key)
		}
		n, err := number(v)
		if err != nil {
			return model.Assessment{}, fmt.Errorf("sub-score %q: %w", key, err)
		}
		vals[key] = clampScore(n)
	}

	return model.Assessment{
		SubScores: model.SubScores{
			Competence: vals["competence"],
			Company:    vals["company"],
			Salary:     vals["salary"],
			Location:   vals["location"],
			Growth:     vals["growth"],
		},
		Rationale:       truncate(strings.TrimSpace(doc.Get("rationale").String()), maxRationale),
		MatchedSkills:   stringArray(doc.Get("matched_skills")),
		PositiveSignals: stringArray(doc.Get("positive_signals")),
		NegativeSignals: stringArray(doc.Get("negative_signals")),
	}, nil
}

func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func number(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v.Str)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %s", v.Raw)
	}
}

func clampScore(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Min(100, math.Max(0, f))))
}

func stringArray(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func remoteLabel(job model.JobRecord) string {
	switch {
	case job.WorkFromHomeType != "":
		return job.WorkFromHomeType
	case job.IsRemote != nil && *job.IsRemote:
		return "remote"
	default:
		return ""
	}
}

func salaryLabel(job model.JobRecord) string {
	if job.MinAmount == nil && job.MaxAmount == nil {
		return ""
	}
	var b strings.Builder
	switch {
	case job.MinAmount != nil && job.MaxAmount != nil:
		fmt.Fprintf(&b, "%.0f-%.0f", *job.MinAmount, *job.MaxAmount)
	case job.MinAmount != nil:
		fmt.Fprintf(&b, "from %.0f", *job.MinAmount)
	default:
		fmt.Fprintf(&b, "up to %.0f", *job.MaxAmount)
	}
	if job.Currency != "" {
		b.WriteString(" " + job.Currency)
	}
	if job.Interval != "" {
		b.WriteString(" " + job.Interval)
	}
	return b.String()
}
