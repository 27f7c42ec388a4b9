package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// MoviesHandler serves /movies/:selector. The selector is either a list name
// or a numeric movie id, which yields details plus trailers.
func MoviesHandler(c *Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		selector := httprouter.ParamsFromContext(r.Context()).ByName("selector")

		switch selector {
		case "popular":
			respondList(w, r, c.Popular)
		case "top_rated":
			respondList(w, r, c.TopRated)
		case "upcoming":
			respondList(w, r, c.Upcoming)
		case "now_playing":
			respondList(w, r, c.NowPlaying)
		case "anime":
			respondList(w, r, c.AnimeMovies)
		default:
			movieID, err := strconv.Atoi(selector)
			if err != nil {
				respond(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid movie id"})
				return
			}
			serveDetails(w, r, c, movieID)
		}
	})
}

func AnimeTVHandler(c *Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondList(w, r, c.AnimeTVShows)
	})
}

func serveDetails(w http.ResponseWriter, r *http.Request, c *Client, movieID int) {
	details, err := c.Details(r.Context(), movieID)
	if err != nil {
		respondUpstreamError(w)
		return
	}
	trailers, err := c.Trailers(r.Context(), movieID)
	if err != nil {
		respondUpstreamError(w)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"details": details, "trailers": trailers})
}

func respondList(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]Movie, error)) {
	movies, err := fetch(r.Context())
	if err != nil {
		respondUpstreamError(w)
		return
	}
	respond(w, http.StatusOK, movies)
}

func respondUpstreamError(w http.ResponseWriter) {
	respond(w, http.StatusBadGateway, map[string]interface{}{"success": false, "error": "catalog unavailable"})
}

func respond(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
