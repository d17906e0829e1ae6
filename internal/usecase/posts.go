package usecase

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/techtrends/internal/domain"
)

// PostService implements listing, reading and creating posts on top of the
// repository, plus the store health and statistics reported by the server.
type PostService struct {
	Repo        domain.PostRepository
	Connections domain.ConnectionCounter
}

// NewPostService constructs a PostService with the given repo and counter.
func NewPostService(r domain.PostRepository, c domain.ConnectionCounter) PostService {
	return PostService{Repo: r, Connections: c}
}

// CreatePostInput is the create form payload.
type CreatePostInput struct {
	Title   string `form:"title" validate:"required"`
	Content string `form:"content"`
}

// Stats is the body of the JSON metrics endpoint.
type Stats struct {
	DBConnectionCount int64 `json:"db_connection_count"`
	PostCount         int64 `json:"post_count"`
}

// FieldError names a rejected form field and a user-facing message.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries the field errors of a rejected submission.
// It matches domain.ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// Is reports whether target is domain.ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == domain.ErrValidation }

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// List returns every post.
func (s PostService) List(ctx domain.Context) ([]domain.Post, error) {
	return s.Repo.List(ctx)
}

// Get returns the post with id; found is false when it does not exist.
func (s PostService) Get(ctx domain.Context, id int64) (domain.Post, bool, error) {
	if id <= 0 {
		return domain.Post{}, false, nil
	}
	return s.Repo.Get(ctx, id)
}

// Create validates in and inserts a new post, returning its id.
// An empty title yields a *ValidationError and nothing is written.
func (s PostService) Create(ctx domain.Context, in CreatePostInput) (int64, error) {
	if err := validateCreate(in); err != nil {
		return 0, err
	}
	return s.Repo.Insert(ctx, in.Title, in.Content)
}

func validateCreate(in CreatePostInput) error {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	out := &ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, FieldError{Field: strings.ToLower(fe.Field()), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch {
	case fe.Field() == "Title" && fe.Tag() == "required":
		return "Title is required!"
	case fe.Tag() == "required":
		return fe.Field() + " is required!"
	default:
		return fe.Field() + " is invalid"
	}
}

// Stats counts posts over a fresh connection and reports it together with the
// number of connections opened so far, that one included.
func (s PostService) Stats(ctx domain.Context) (Stats, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	var conns int64
	if s.Connections != nil {
		conns = s.Connections.Load()
	}
	return Stats{DBConnectionCount: conns, PostCount: n}, nil
}

// Health checks that the store is reachable and holds the posts table.
func (s PostService) Health(ctx domain.Context) error {
	if s.Repo == nil {
		return fmt.Errorf("%w: repository not configured", domain.ErrStoreUnavailable)
	}
	return s.Repo.Check(ctx)
}
