package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/retry"
)

// HTTPSource fetches a batch from an endpoint that returns either a JSON array
// of records or an object with a "jobs" array.
type HTTPSource struct {
	name      string
	url       string
	cleanHTML bool
	client    *resty.Client
}

// NewHTTPSource creates a source that GETs url with httpClient.
func NewHTTPSource(name, url string, cleanHTML bool, httpClient *http.Client) *HTTPSource {
	return &HTTPSource{
		name:      name,
		url:       url,
		cleanHTML: cleanHTML,
		client:    resty.NewWithClient(httpClient).SetHeader("Accept", "application/json"),
	}
}

func (s *HTTPSource) Name() string { return s.name }

// FetchBatch performs one GET. Non-2xx answers become *model.HTTPError so the
// retry decorator can tell transient from permanent failures.
func (s *HTTPSource) FetchBatch(ctx context.Context) (model.Batch, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return model.Batch{}, fmt.Errorf("source %s: %w", s.name, err)
	}

	if !resp.IsSuccess() {
		return model.Batch{}, &model.HTTPError{
			StatusCode: resp.StatusCode(),
			RetryAfter: retry.ParseRetryAfter(resp.Header().Get("Retry-After")),
			Err:        fmt.Errorf("source %s: unexpected status %d", s.name, resp.StatusCode()),
		}
	}

	rows, err := decodeBody(resp.Body())
	if err != nil {
		return model.Batch{}, retry.Permanent(fmt.Errorf("source %s: %w", s.name, err))
	}
	return model.Batch{Source: s.name, Records: normalize(rows, s.cleanHTML)}, nil
}

func decodeBody(body []byte) ([]row, error) {
	body = bytes.TrimSpace(body)
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	raw := body
	if len(body) > 0 && body[0] == '{' {
		jobs := gjson.GetBytes(body, "jobs")
		if !jobs.IsArray() {
			return nil, fmt.Errorf(`response object has no "jobs" array`)
		}
		raw = []byte(jobs.Raw)
	}

	var rows []row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return rows, nil
}
