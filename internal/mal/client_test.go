package mal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) GetValidToken(_ context.Context) (string, error) {
	return s.token, s.err
}

func TestSearchParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "My Hero Academia" {
			t.Errorf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"node":{
			"id":31964,
			"title":"Boku no Hero Academia",
			"alternative_titles":{"en":"My Hero Academia","ja":"僕のヒーローアカデミア","synonyms":["BNHA"]},
			"start_date":"2016-04-03"
		}}]}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(server.URL, staticTokens{token: "token-1"}, server.Client(), 10)

	candidates, err := client.Search(context.Background(), "My Hero Academia")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	candidate := candidates[0]
	if candidate.ID != 31964 {
		t.Errorf("unexpected id %d", candidate.ID)
	}
	if candidate.Title != "Boku no Hero Academia" {
		t.Errorf("unexpected title %q", candidate.Title)
	}
	if len(candidate.AlternateTitles) != 3 || candidate.AlternateTitles[0] != "My Hero Academia" {
		t.Errorf("unexpected alternates %v", candidate.AlternateTitles)
	}
	if candidate.StartDate != "2016-04-03" {
		t.Errorf("unexpected start date %q", candidate.StartDate)
	}
}

func TestUserAnimeIDsSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"node":{"id":1}},{"node":{"id":5114}}],"paging":{}}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(server.URL, staticTokens{token: "t"}, server.Client(), 10)

	ids, err := client.UserAnimeIDs(context.Background())
	if err != nil {
		t.Fatalf("user list failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if _, ok := ids[5114]; !ok {
		t.Fatalf("expected id 5114 in snapshot")
	}
}

func TestUpdateListStatusRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithOptions(server.URL, staticTokens{token: "t"}, server.Client(), 10)

	err := client.UpdateListStatus(context.Background(), 1, "watching")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUpdateListStatusSendsForm(t *testing.T) {
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/anime/42/my_list_status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotStatus = r.PostFormValue("status")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(server.URL, staticTokens{token: "t"}, server.Client(), 10)

	if err := client.UpdateListStatus(context.Background(), 42, "watching"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if gotStatus != "watching" {
		t.Fatalf("expected status form field, got %q", gotStatus)
	}
}

func TestTokenFailurePropagates(t *testing.T) {
	wantErr := errors.New("re-authentication required")
	client := NewClientWithOptions("http://unused", staticTokens{err: wantErr}, nil, 10)

	_, err := client.Search(context.Background(), "anything")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected token error to propagate, got %v", err)
	}
}
