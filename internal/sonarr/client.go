package sonarr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrov/anisync/internal/models"
)

// Series mirrors the fields of a Sonarr /api/v3/series entry that matter for
// classification and sync.
type Series struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Year       int    `json:"year"`
	SeriesType string `json:"seriesType"`
	Path       string `json:"path"`
	Tags       []int  `json:"tags"`
}

type tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Classifier decides whether a series counts as anime. It is injected so the
// heuristics stay outside the sync core.
type Classifier func(series Series, tagLabels map[int]string) bool

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	classify   Classifier
}

func NewClient(baseURL, apiKey string, classify Classifier) *Client {
	return NewClientWithOptions(baseURL, apiKey, classify, nil)
}

func NewClientWithOptions(baseURL, apiKey string, classify Classifier, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if classify == nil {
		classify = DefaultClassifier
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
		classify:   classify,
	}
}

// AnimeSeries returns every Sonarr series the classifier accepts, mapped to
// sync source items.
func (c *Client) AnimeSeries(ctx context.Context) ([]models.SeriesItem, error) {
	var all []Series
	if err := c.getJSON(ctx, "/api/v3/series", &all); err != nil {
		return nil, err
	}

	tagLabels, err := c.tagLabels(ctx)
	if err != nil {
		// Tag lookup failure degrades classification, not the fetch.
		tagLabels = map[int]string{}
	}

	items := make([]models.SeriesItem, 0, len(all))
	for _, series := range all {
		if !c.classify(series, tagLabels) {
			continue
		}
		items = append(items, models.SeriesItem{
			SonarrID: series.ID,
			Title:    series.Title,
			Status:   strings.ToLower(series.Status),
			Year:     series.Year,
		})
	}
	return items, nil
}

// CheckConnection verifies the configured URL and API key.
func (c *Client) CheckConnection(ctx context.Context) error {
	var ignored map[string]any
	return c.getJSON(ctx, "/api/v3/system/status", &ignored)
}

func (c *Client) tagLabels(ctx context.Context) (map[int]string, error) {
	var tags []tag
	if err := c.getJSON(ctx, "/api/v3/tag", &tags); err != nil {
		return nil, err
	}

	labels := make(map[int]string, len(tags))
	for _, t := range tags {
		labels[t.ID] = strings.ToLower(t.Label)
	}
	return labels, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("request %s: unexpected status %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
