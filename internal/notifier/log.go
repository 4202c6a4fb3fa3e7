package notifier

import (
	"log/slog"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes scored matches to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per job. It never fails.
func (n *LogNotifier) Notify(jobs []model.JobRecord) error {
	for _, j := range jobs {
		args := []any{"id", j.ID, "company", j.Company, "title", j.Title, "location", j.Location, "url", jobURL(j)}
		if j.Enrichment != nil {
			args = append(args, "score", j.Enrichment.Score)
		}
		if j.DatePosted != "" {
			args = append(args, "date_posted", j.DatePosted)
		}
		n.logger.Info("new match", args...)
	}
	return nil
}

// jobURL prefers the board link and falls back to the direct company link.
func jobURL(j model.JobRecord) string {
	if j.JobURL != "" {
		return j.JobURL
	}
	return j.JobURLDirect
}
