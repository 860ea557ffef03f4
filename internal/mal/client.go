package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mpetrov/anisync/internal/models"
)

// ErrRateLimited is returned when MyAnimeList answers 429. Callers back off
// and mark the item failed instead of retrying.
var ErrRateLimited = errors.New("mal: rate limited")

const userListPageSize = 1000

// TokenProvider supplies a valid access token before each authenticated
// call. The malauth manager implements it.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (string, error)
}

type Client struct {
	apiBaseURL  string
	tokens      TokenProvider
	httpClient  *http.Client
	searchLimit int
}

func NewClient(tokens TokenProvider) *Client {
	return NewClientWithOptions("https://api.myanimelist.net/v2", tokens, nil, 10)
}

func NewClientWithOptions(apiBaseURL string, tokens TokenProvider, client *http.Client, searchLimit int) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Client{
		apiBaseURL:  strings.TrimRight(apiBaseURL, "/"),
		tokens:      tokens,
		httpClient:  client,
		searchLimit: searchLimit,
	}
}

// Search queries the anime catalog by title and returns match candidates
// with their alternate titles.
func (c *Client) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	query := url.Values{}
	query.Set("q", title)
	query.Set("limit", strconv.Itoa(c.searchLimit))
	query.Set("fields", "id,title,alternative_titles,start_date")

	var parsed searchResponse
	if err := c.getJSON(ctx, "/anime?"+query.Encode(), &parsed); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(parsed.Data))
	for _, entry := range parsed.Data {
		candidates = append(candidates, candidateFromNode(entry.Node))
	}
	return candidates, nil
}

// UserAnimeIDs fetches the ids of every anime on the user's list. The result
// is the existing-list snapshot captured once per sync run.
func (c *Client) UserAnimeIDs(ctx context.Context) (map[int]struct{}, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(userListPageSize))
	query.Set("fields", "list_status")

	ids := make(map[int]struct{})
	path := "/users/@me/animelist?" + query.Encode()

	for path != "" {
		var parsed userListResponse
		if err := c.getJSON(ctx, path, &parsed); err != nil {
			return nil, err
		}
		for _, entry := range parsed.Data {
			ids[entry.Node.ID] = struct{}{}
		}

		path = ""
		if next := parsed.Paging.Next; next != "" {
			trimmed := strings.TrimPrefix(next, c.apiBaseURL)
			if trimmed != next && strings.HasPrefix(trimmed, "/") {
				path = trimmed
			}
		}
	}

	return ids, nil
}

// UpdateListStatus adds or updates one anime on the user's list.
func (c *Client) UpdateListStatus(ctx context.Context, animeID int, status string) error {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return fmt.Errorf("mal token: %w", err)
	}

	form := url.Values{}
	form.Set("status", status)

	endpoint := fmt.Sprintf("%s/anime/%d/my_list_status", c.apiBaseURL, animeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create update request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update list status: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("update list status: unexpected status %d", res.StatusCode)
	}
	return nil
}

// CheckConnection verifies the stored credential against the profile
// endpoint.
func (c *Client) CheckConnection(ctx context.Context) error {
	var ignored map[string]any
	return c.getJSON(ctx, "/users/@me", &ignored)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return fmt.Errorf("mal token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("request %s: unexpected status %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func candidateFromNode(node animeNode) models.Candidate {
	alternates := make([]string, 0, 2+len(node.AlternativeTitles.Synonyms))
	if node.AlternativeTitles.En != "" {
		alternates = append(alternates, node.AlternativeTitles.En)
	}
	if node.AlternativeTitles.Ja != "" {
		alternates = append(alternates, node.AlternativeTitles.Ja)
	}
	alternates = append(alternates, node.AlternativeTitles.Synonyms...)

	return models.Candidate{
		ID:              node.ID,
		Title:           node.Title,
		AlternateTitles: alternates,
		StartDate:       node.StartDate,
	}
}
