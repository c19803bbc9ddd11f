package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backfill/internal/tmdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchMovieSendsQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if q.Get("query") != "Die Hard" {
			t.Errorf("unexpected query %q", q.Get("query"))
		}
		if q.Get("year") != "1988" {
			t.Errorf("unexpected year %q", q.Get("year"))
		}
		if q.Get("language") != "en-US" {
			t.Errorf("unexpected language %q", q.Get("language"))
		}
		if q.Get("include_adult") != "false" {
			t.Errorf("unexpected include_adult %q", q.Get("include_adult"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":562,"title":"Die Hard","release_date":"1988-07-15"},{"id":1573,"title":"Die Hard 2"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL+"/3/", "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovie(context.Background(), "  Die   Hard ", tmdb.SearchOptions{Year: 1988})
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != 562 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.Results[0].Year() != 1988 {
		t.Fatalf("expected release year 1988, got %d", resp.Results[0].Year())
	}
	if resp.Results[1].Year() != 0 {
		t.Fatalf("expected unknown year for missing release date, got %d", resp.Results[1].Year())
	}
}

func TestSearchMovieOmitsYearWhenZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["year"]; ok {
			t.Errorf("year must be omitted, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	resp, err := client.SearchMovie(context.Background(), "Obscure Short", tmdb.SearchOptions{})
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected empty results, got %#v", resp.Results)
	}
}

func TestSearchMovieHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.SearchMovie(context.Background(), "fail", tmdb.SearchOptions{})
	var statusErr *tmdb.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code %d", statusErr.StatusCode)
	}
}

func TestSearchMovieTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", tmdb.WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "slow", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  ", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestNormalizeQueryComposesAccents(t *testing.T) {
	decomposed := "Ame\u0301lie"
	if got := tmdb.NormalizeQuery(decomposed); got != "Am\u00e9lie" {
		t.Fatalf("expected composed title, got %q", got)
	}
}
