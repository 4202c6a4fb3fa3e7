package browse

import (
	"fmt"
	"strings"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// renderJobs builds the list pane. Each job takes jobItemHeight lines.
func renderJobs(jobs []model.JobRecord, cursor int) string {
	if len(jobs) == 0 {
		return hintStyle.Render("  No jobs match this view.")
	}

	var b strings.Builder
	for i, job := range jobs {
		title := fmt.Sprintf("%s %s%s", scoreBadge(job), orDash(job.Title), flagMarks(job.Flags))
		subtitle := "     " + strings.Join(nonEmpty(orDash(job.Company), job.Location, job.DatePosted), " · ")

		if i == cursor {
			b.WriteString(selectedJobTitleStyle.Render("▸ " + title))
			b.WriteString("\n")
			b.WriteString(selectedJobSubtitleStyle.Render(subtitle))
		} else {
			b.WriteString(jobTitleStyle.Render("  " + title))
			b.WriteString("\n")
			b.WriteString(jobSubtitleStyle.Render(subtitle))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func scoreBadge(job model.JobRecord) string {
	if job.Enrichment == nil {
		return "[--]"
	}
	s := job.Enrichment.Score
	return scoreStyle(s).Render(fmt.Sprintf("[%2d]", s))
}

func flagMarks(f model.Flags) string {
	var marks []string
	if f.Viewed {
		marks = append(marks, "V")
	}
	if f.Interested {
		marks = append(marks, "I")
	}
	if f.Applied {
		marks = append(marks, "A")
	}
	if len(marks) == 0 {
		return ""
	}
	return "  (" + strings.Join(marks, "") + ")"
}

// renderDetail builds the detail pane for one job. The description is long,
// so it is only shown when showDesc is set.
func renderDetail(job model.JobRecord, showDesc bool, width int) string {
	var b strings.Builder

	b.WriteString(detailTitleStyle.Render(orDash(job.Title)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Company", job.Company)
	field("Location", job.Location)
	field("Site", job.Site)
	field("Posted", job.DatePosted)
	field("Job type", job.JobType)
	field("Level", job.JobLevel)
	field("Remote", remote(job))
	field("Salary", salary(job))
	field("URL", jobURL(job))
	field("Scraped", job.ScrapedAt.Format("2006-01-02 15:04"))
	field("ID", job.ID)

	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", min(width, 60))))
	b.WriteString("\n\n")

	if e := job.Enrichment; e != nil {
		b.WriteString(detailLabelStyle.Render("Score"))
		b.WriteString(scoreStyle(e.Score).Render(fmt.Sprintf("%d", e.Score)))
		b.WriteString("\n")
		field("Sub-scores", fmt.Sprintf("competence %d · company %d · salary %d · location %d · growth %d",
			e.SubScores.Competence, e.SubScores.Company, e.SubScores.Salary, e.SubScores.Location, e.SubScores.Growth))
		field("Skills", strings.Join(e.MatchedSkills, ", "))
		field("Positives", strings.Join(e.PositiveSignals, "; "))
		field("Negatives", strings.Join(e.NegativeSignals, "; "))
		if e.Rationale != "" {
			b.WriteString("\n")
			b.WriteString(wordWrap(e.Rationale, width))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(hintStyle.Render("Not scored yet."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	field("Viewed", flagValue(job.Flags.Viewed, job.Flags.ViewedAt))
	field("Interested", flagValue(job.Flags.Interested, job.Flags.InterestedAt))
	field("Applied", flagValue(job.Flags.Applied, job.Flags.AppliedAt))
	field("Notes", job.Flags.Notes)

	if showDesc {
		b.WriteString("\n")
		b.WriteString(dividerStyle.Render(strings.Repeat("─", min(width, 60))))
		b.WriteString("\n\n")
		if strings.TrimSpace(job.Description) == "" {
			b.WriteString(hintStyle.Render("No description."))
		} else {
			b.WriteString(wordWrap(job.Description, width))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func flagValue(set bool, at *time.Time) string {
	if !set {
		return "no"
	}
	if at == nil {
		return "yes"
	}
	return "yes (" + at.Format("2006-01-02") + ")"
}

func remote(job model.JobRecord) string {
	switch {
	case job.WorkFromHomeType != "":
		return job.WorkFromHomeType
	case job.IsRemote != nil && *job.IsRemote:
		return "yes"
	case job.IsRemote != nil:
		return "no"
	default:
		return ""
	}
}

func salary(job model.JobRecord) string {
	var amount string
	switch {
	case job.MinAmount != nil && job.MaxAmount != nil:
		amount = fmt.Sprintf("%.0f-%.0f", *job.MinAmount, *job.MaxAmount)
	case job.MinAmount != nil:
		amount = fmt.Sprintf("from %.0f", *job.MinAmount)
	case job.MaxAmount != nil:
		amount = fmt.Sprintf("up to %.0f", *job.MaxAmount)
	default:
		return ""
	}
	return strings.Join(nonEmpty(amount, job.Currency, job.Interval), " ")
}

func jobURL(job model.JobRecord) string {
	if job.JobURL != "" {
		return job.JobURL
	}
	return job.JobURLDirect
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// wordWrap breaks text into lines of at most width runes, keeping paragraph
// breaks.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var b strings.Builder
	for i, para := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		lineLen := 0
		for j, word := range strings.Fields(para) {
			wl := len([]rune(word))
			if j > 0 && lineLen+1+wl > width {
				b.WriteString("\n")
				lineLen = 0
			} else if j > 0 {
				b.WriteString(" ")
				lineLen++
			}
			b.WriteString(word)
			lineLen += wl
		}
	}
	return b.String()
}
