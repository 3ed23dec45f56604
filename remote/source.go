package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"opsecho/models"
)

// SnapshotPath is where an OpsEcho server exposes its current dataset
const SnapshotPath = "/api/snapshot"

// snapshotResponse is the envelope returned by SnapshotPath
type snapshotResponse struct {
	Success bool             `json:"success"`
	Data    *models.Snapshot `json:"data"`
	Error   string           `json:"error"`
}

// Source loads snapshots from another OpsEcho instance
type Source struct {
	httpClient *resty.Client
	baseURL    string
	logger     *zap.Logger
	now        func() time.Time
}

// NewSource creates a client for the server at baseURL.
// A failed request is reported as is, without retrying.
func NewSource(baseURL string, timeout time.Duration, logger *zap.Logger) *Source {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Source{httpClient: client, baseURL: baseURL, logger: logger, now: time.Now}
}

// Name identifies the source in logs
func (s *Source) Name() string {
	return "remote"
}

// Load fetches the upstream snapshot and recomputes incident overdue flags locally
func (s *Source) Load(ctx context.Context) (*models.Snapshot, error) {
	var body snapshotResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&body).
		Get(SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot from %s: %w", s.baseURL, err)
	}
	if resp.IsError() {
		s.logger.Error("upstream snapshot request failed",
			zap.String("base_url", s.baseURL),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", body.Error))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode(), body.Error)
	}
	if !body.Success || body.Data == nil {
		return nil, fmt.Errorf("upstream returned an empty snapshot")
	}

	body.Data.Incidents = models.RefreshIncidents(body.Data.Incidents, s.now())
	s.logger.Debug("snapshot fetched",
		zap.String("base_url", s.baseURL),
		zap.Int("incidents", len(body.Data.Incidents)),
		zap.Duration("elapsed", resp.Time()))
	return body.Data, nil
}
