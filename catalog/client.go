// Package catalog proxies the TMDB v3 REST API. It is a stateless
// pass-through: no caching, no business logic.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

const animeGenre = "16"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	apiKey string
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
	}
}

type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	VoteCount   int     `json:"vote_count,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

type MovieDetails struct {
	Movie
	Runtime  int     `json:"runtime,omitempty"`
	Genres   []Genre `json:"genres,omitempty"`
	Homepage string  `json:"homepage,omitempty"`
	Tagline  string  `json:"tagline,omitempty"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

func (c *Client) Popular(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/movie/popular", nil)
}

func (c *Client) TopRated(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/movie/top_rated", nil)
}

func (c *Client) Upcoming(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/movie/upcoming", nil)
}

func (c *Client) NowPlaying(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/movie/now_playing", nil)
}

func (c *Client) AnimeMovies(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/discover/movie", url.Values{"with_genres": {animeGenre}})
}

func (c *Client) AnimeTVShows(ctx context.Context) ([]Movie, error) {
	return c.fetchList(ctx, "/discover/tv", url.Values{"with_genres": {animeGenre}})
}

func (c *Client) Details(ctx context.Context, movieID int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Trailers returns the movie's YouTube trailers only, matching what the
// client application embeds.
func (c *Client) Trailers(ctx context.Context, movieID int) ([]Video, error) {
	var res struct {
		Results []Video `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", movieID), nil, &res); err != nil {
		return nil, err
	}

	trailers := []Video{}
	for _, v := range res.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			trailers = append(trailers, v)
		}
	}
	return trailers, nil
}

func (c *Client) fetchList(ctx context.Context, path string, params url.Values) ([]Movie, error) {
	var res struct {
		Results []Movie `json:"results"`
	}
	if err := c.get(ctx, path, params, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	params.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
