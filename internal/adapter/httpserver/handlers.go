package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/config"
	"github.com/fairyhunter13/techtrends/internal/domain"
	"github.com/fairyhunter13/techtrends/internal/usecase"
)

// Health endpoint bodies.
const (
	healthyResult   = "OK - healthy"
	unhealthyResult = "ERROR - unhealthy"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg   config.Config
	Posts usecase.PostService
}

// NewServer constructs an HTTP server with the post service wired.
func NewServer(cfg config.Config, posts usecase.PostService) *Server {
	return &Server{Cfg: cfg, Posts: posts}
}

// IndexHandler lists every post.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := s.Posts.List(r.Context())
		if err != nil {
			renderError(w, r, fmt.Errorf("list posts: %w", err))
			return
		}
		render(w, r, http.StatusOK, pageIndex, pageData{Posts: posts})
	}
}

// PostHandler renders a single post, or the not-found page when the id is unknown.
func (s *Server) PostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Digits that overflow int64 cannot name a stored post.
			LoggerFrom(r).Info(fmt.Sprintf("Post with ID: %q does not exist!", raw))
			render(w, r, http.StatusNotFound, pageNotFound, pageData{})
			return
		}
		post, found, err := s.Posts.Get(r.Context(), id)
		if err != nil {
			renderError(w, r, fmt.Errorf("get post %d: %w", id, err))
			return
		}
		if !found {
			LoggerFrom(r).Info(fmt.Sprintf("Post with ID: \"%d\" does not exist!", id), slog.Int64("post_id", id))
			render(w, r, http.StatusNotFound, pageNotFound, pageData{})
			return
		}
		LoggerFrom(r).Info(fmt.Sprintf("Post: %q was retrieved!", post.Title), slog.Int64("post_id", id))
		render(w, r, http.StatusOK, pagePost, pageData{Post: post})
	}
}

// AboutHandler renders the static about page.
func (s *Server) AboutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		LoggerFrom(r).Info(`"About Us" page was retrieved!`)
		render(w, r, http.StatusOK, pageAbout, pageData{})
	}
}

// CreateFormHandler renders the empty creation form.
func (s *Server) CreateFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, pageCreate, pageData{})
	}
}

// CreateHandler handles the creation form. A missing title re-renders the
// form with a notice and status 200; success redirects to the index.
func (s *Server) CreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseForm(); err != nil {
			renderError(w, r, fmt.Errorf("%w: invalid form: %v", domain.ErrInvalidArgument, err))
			return
		}
		in := usecase.CreatePostInput{
			Title:   r.PostFormValue("title"),
			Content: r.PostFormValue("content"),
		}
		_, err := s.Posts.Create(r.Context(), in)
		if err != nil {
			var ve *usecase.ValidationError
			if errors.As(err, &ve) {
				observability.PostValidationFailuresTotal.Inc()
				flashes := make([]string, 0, len(ve.Fields))
				for _, f := range ve.Fields {
					flashes = append(flashes, f.Message)
				}
				render(w, r, http.StatusOK, pageCreate, pageData{Form: in, Flashes: flashes})
				return
			}
			renderError(w, r, fmt.Errorf("create post: %w", err))
			return
		}
		observability.PostsCreatedTotal.Inc()
		LoggerFrom(r).Info(fmt.Sprintf("New post: %q was created!", in.Title))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// NotFoundHandler renders the not-found page for unknown routes.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusNotFound, pageNotFound, pageData{})
	}
}

// StaticHandler serves the embedded stylesheet and other assets under /static/.
func (s *Server) StaticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(staticFS()))
}

// HealthzHandler verifies the store holds a readable posts table.
// Every failure is logged and reported as 500 with the unhealthy body.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Posts.Health(r.Context()); err != nil {
			LoggerFrom(r).Error("/healthz failed", slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"result": unhealthyResult})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"result": healthyResult})
	}
}

// MetricsHandler reports the connection counter and the number of posts.
func (s *Server) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Posts.Stats(r.Context())
		if err != nil {
			writeError(w, r, fmt.Errorf("metrics: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
