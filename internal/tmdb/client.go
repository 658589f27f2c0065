// Package tmdb is a minimal client for the TMDB movie metadata API.
//
// The server proxies movie search through this client so the TMDB API key
// never ships to mobile clients. Search results are metadata candidates
// only — nothing enters the local catalog until a user adds a movie to a
// watchlist.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the TMDB API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a TMDB client. baseURL is normally
// "https://api.themoviedb.org/3".
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SearchResponse is the TMDB /search/movie response.
type SearchResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Movie is a movie as returned by TMDB search. Field names follow TMDB's
// wire format, which is also what our own API exposes to clients.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

// SearchMovies queries TMDB for movies matching query. page starts at 1.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchResponse, error) {
	if page < 1 {
		page = 1
	}

	u := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s&page=%d",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query), page)

	resp, err := c.doGet(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("tmdb: decoding search response: %w", err)
	}
	return &result, nil
}

func (c *Client) doGet(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("tmdb: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
