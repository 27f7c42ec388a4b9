package moviefavs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/uxbase/moviefavs/catalog"
)

// NewRouter builds the full HTTP surface: account routes backed by svc and
// catalog pass-through routes backed by cat. Every route is wrapped in the
// request logger.
func NewRouter(svc Service, cat *catalog.Client, log *zap.Logger) http.Handler {
	router := httprouter.New()

	router.Handler(http.MethodGet, "/", HealthHandler())
	router.Handler(http.MethodPost, "/register", RegisterHandler(svc))
	router.Handler(http.MethodPost, "/login", LoginHandler(svc))
	router.Handler(http.MethodGet, "/user/:username", GetUserHandler(svc))
	router.Handler(http.MethodDelete, "/user/:username", DeleteUserHandler(svc))
	router.Handler(http.MethodPost, "/user/:username/movie", AddMovieHandler(svc))
	router.Handler(http.MethodDelete, "/user/:username/movie/:movieId", RemoveMovieHandler(svc))

	if cat != nil {
		// httprouter cannot mix static and parameter segments under
		// /movies, so one handler dispatches on the selector: a list name
		// (popular, top_rated, ...) or a numeric movie id.
		router.Handler(http.MethodGet, "/movies/:selector", catalog.MoviesHandler(cat))
		router.Handler(http.MethodGet, "/tv/anime", catalog.AnimeTVHandler(cat))
	}

	return RequestLogger(router, log)
}

func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API is running!"))
	})
}

func RegisterHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			encodeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if err := svc.Register(r.Context(), req); err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, successResponse{Success: true})
	})
}

func LoginHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			encodeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if err := svc.Login(r.Context(), req); err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, successResponse{Success: true, Message: "user logged in successfully"})
	})
}

func GetUserHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := httprouter.ParamsFromContext(r.Context()).ByName("username")
		user, err := svc.FindUser(r.Context(), username)
		if err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, user)
	})
}

func DeleteUserHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := httprouter.ParamsFromContext(r.Context()).ByName("username")
		if err := svc.DeleteUser(r.Context(), username); err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, successResponse{Success: true})
	})
}

func AddMovieHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := httprouter.ParamsFromContext(r.Context()).ByName("username")
		var movie MovieRef
		if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
			encodeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if err := svc.AddMovieToUser(r.Context(), username, movie); err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, successResponse{Success: true})
	})
}

func RemoveMovieHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := httprouter.ParamsFromContext(r.Context())
		username := params.ByName("username")
		movieID, err := strconv.Atoi(params.ByName("movieId"))
		if err != nil {
			encodeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid movie id"})
			return
		}
		if err := svc.RemoveMovieFromUser(r.Context(), username, movieID); err != nil {
			encodeError(err, w)
			return
		}
		encodeJSON(w, http.StatusOK, successResponse{Success: true})
	})
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// encodeError flattens the service's typed errors into HTTP status codes.
// Unrecognized errors become an opaque 500: internal detail never reaches
// the client.
func encodeError(err error, w http.ResponseWriter) {
	var code int
	var msg string
	switch {
	case errors.Is(err, ErrUnauthorized):
		code, msg = http.StatusUnauthorized, ErrUnauthorized.Error()
	case errors.Is(err, ErrUserNotFound):
		code, msg = http.StatusNotFound, ErrUserNotFound.Error()
	case errors.Is(err, ErrNotFound):
		code, msg = http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrDuplicateIdentifier):
		code, msg = http.StatusConflict, ErrDuplicateIdentifier.Error()
	case errors.Is(err, ErrConflict):
		code, msg = http.StatusConflict, ErrConflict.Error()
	case errors.Is(err, ErrInvalidCredential):
		code, msg = http.StatusUnprocessableEntity, ErrInvalidCredential.Error()
	case errors.Is(err, ErrInvalidUsername):
		code, msg = http.StatusUnprocessableEntity, ErrInvalidUsername.Error()
	default:
		code, msg = http.StatusInternalServerError, "internal error"
	}
	encodeJSON(w, code, errorResponse{Error: msg})
}

func encodeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
