// Package recordsfetcher downloads the official records from the WCA API.
package recordsfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
)

const (
	// DefaultURL is the public WCA records endpoint.
	DefaultURL = "https://www.worldcubeassociation.org/api/v0/records"

	fetchTimeout = 30 * time.Second
	maxRedirects = 5
	// maxResponseBytes guards against a misbehaving upstream.
	maxResponseBytes = 16 << 20
)

// recordsResponse mirrors the API payload. Every level maps an id to event
// codes, and each event code maps "single" and "average" to a value.
type recordsResponse struct {
	WorldRecords       map[string]map[string]int64            `json:"world_records"`
	ContinentalRecords map[string]map[string]map[string]int64 `json:"continental_records"`
	NationalRecords    map[string]map[string]map[string]int64 `json:"national_records"`
}

// Client fetches record entries over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a records client. An empty url selects DefaultURL.
func NewClient(url string, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		logger: logger,
	}
}

// Fetch downloads and flattens the current records.
func (c *Client) Fetch(ctx context.Context) ([]resultsdomain.RecordEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build records request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "live-results/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("failed to fetch records: unexpected status %d", resp.StatusCode)
	}

	var payload recordsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	entries := payload.entries()
	c.logger.InfoContext(ctx, "Fetched official records",
		attr.Int("records", len(entries)),
		attr.Duration("duration", time.Since(start)),
	)
	return entries, nil
}

func (p recordsResponse) entries() []resultsdomain.RecordEntry {
	var out []resultsdomain.RecordEntry
	add := func(scope resultsdomain.Scope, events map[string]map[string]int64) {
		for eventCode, stats := range events {
			for statType, value := range stats {
				st := resultsdomain.StatType(statType)
				if st != resultsdomain.StatSingle && st != resultsdomain.StatAverage {
					continue
				}
				out = append(out, resultsdomain.RecordEntry{
					RecordKey: resultsdomain.RecordKey{Scope: scope, EventCode: eventCode, Type: st},
					Value:     resultsdomain.AttemptResult(value),
				})
			}
		}
	}

	add(resultsdomain.Scope{Kind: resultsdomain.ScopeWorld}, p.WorldRecords)
	for continentID, events := range p.ContinentalRecords {
		add(resultsdomain.Scope{Kind: resultsdomain.ScopeContinent, ID: continentID}, events)
	}
	for countryID, events := range p.NationalRecords {
		add(resultsdomain.Scope{Kind: resultsdomain.ScopeCountry, ID: countryID}, events)
	}
	return out
}
