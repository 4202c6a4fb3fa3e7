package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/retry"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends job alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // between messages
}

// NewSlackNotifier returns a notifier that posts each job to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
	}
}

// Notify sends each job as a separate Block Kit message.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(jobs []model.JobRecord) error {
	if len(jobs) == 0 {
		return nil
	}

	failures := 0
	for i, j := range jobs {
		if i > 0 && s.pause > 0 {
			time.Sleep(s.pause)
		}

		if err := s.sendMessage(j); err != nil {
			s.logger.Error("slack notification failed", "id", j.ID, "title", j.Title, "error", err)
			failures++
		}
	}

	if failures == len(jobs) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(jobs)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(j model.JobRecord) error {
	body, err := json.Marshal(buildPayload(j))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}

	// One retry on 429, after the advertised delay.
	if status == http.StatusTooManyRequests {
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		time.Sleep(retryAfter)

		status, _, err = s.post(body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Debug("slack message sent", "id", j.ID, "title", j.Title)
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, retry.ParseRetryAfter(resp.Header.Get("Retry-After")), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a sample scored posting to verify the integration.
func SendTestMessage(n model.Notifier) error {
	testJob := model.JobRecord{
		ID: "test-001",
		ScrapeFields: model.ScrapeFields{
			Site:     "test",
			Title:    "Test Notification",
			Company:  "SmartJobHunter",
			Location: "Everywhere",
			JobURL:   "https://example.com/jobs/test-001",
		},
		Enrichment: &model.Enrichment{
			Score:         100,
			SubScores:     model.SubScores{Competence: 100, Company: 100, Salary: 100, Location: 100, Growth: 100},
			Rationale:     "Integration verified.",
			MatchedSkills: []string{"go", "sql"},
			EnrichedAt:    time.Now(),
		},
	}
	return n.Notify([]model.JobRecord{testJob})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func buildPayload(j model.JobRecord) slackPayload {
	header := j.Company + ": " + j.Title
	if j.Enrichment != nil {
		header = fmt.Sprintf("%d · %s", j.Enrichment.Score, header)
	}

	posted := j.DatePosted
	if posted == "" {
		posted = "Unknown"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + orDash(j.Company)},
				{Type: "mrkdwn", Text: "*Location:*\n" + orDash(j.Location)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Posted:*\n" + posted},
				{Type: "mrkdwn", Text: "*Site:*\n" + orDash(j.Site)},
			},
		},
	}

	if e := j.Enrichment; e != nil {
		text := fmt.Sprintf("*Competence* %d   *Company* %d   *Salary* %d   *Location* %d   *Growth* %d",
			e.SubScores.Competence, e.SubScores.Company, e.SubScores.Salary, e.SubScores.Location, e.SubScores.Growth)
		if e.Rationale != "" {
			text += "\n" + e.Rationale
		}
		if len(e.MatchedSkills) > 0 {
			text += "\n*Skills:* " + strings.Join(e.MatchedSkills, ", ")
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	if url := jobURL(j); url != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Open Posting"},
					URL:   url,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}
