package httpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/techtrends/internal/adapter/httpserver"
	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/adapter/repo/sqlite"
	"github.com/fairyhunter13/techtrends/internal/config"
	"github.com/fairyhunter13/techtrends/internal/usecase"
)

var testSeed = []sqlite.SeedPost{
	{Title: "Kubernetes Basics", Content: "Pods, services and deployments."},
	{Title: "Observability 101", Content: "Logs, metrics and traces."},
}

type testEnv struct {
	srv         *httpserver.Server
	router      http.Handler
	connections *observability.ConnectionCounter
	dbPath      string
}

// newTestEnv wires a server over a freshly provisioned database.
// Pass provision=false to point the server at a file that does not exist.
func newTestEnv(t *testing.T, provision bool, seed []sqlite.SeedPost) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.db")
	if provision {
		require.NoError(t, sqlite.Provision(context.Background(), path, seed))
	}
	return envAt(path)
}

// newRawEnv wires a server over a database built from the given statements
// instead of the provisioned schema.
func newRawEnv(t *testing.T, stmts ...string) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.db")
	db, err := sqlx.Open(sqlite.DriverName, "file:"+path+"?mode=rwc")
	require.NoError(t, err)
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	require.NoError(t, db.Close())
	return envAt(path)
}

func envAt(path string) *testEnv {
	counter := observability.NewConnectionCounter()
	repo := sqlite.NewPostRepo(sqlite.NewAccessor(sqlite.Config{Path: path}, counter))
	srv := httpserver.NewServer(config.Config{AppEnv: "test"}, usecase.NewPostService(repo, counter))
	return &testEnv{srv: srv, router: newRouter(srv), connections: counter, dbPath: path}
}

// newRouter mounts the handlers the same way the app router does, without
// the middleware stack.
func newRouter(s *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.IndexHandler())
	r.Get("/about", s.AboutHandler())
	r.Get("/create", s.CreateFormHandler())
	r.Post("/create", s.CreateHandler())
	r.Get("/{id:[0-9]+}", s.PostHandler())
	r.Get("/healthz", s.HealthzHandler())
	r.Get("/metrics", s.MetricsHandler())
	r.Handle("/static/*", s.StaticHandler())
	r.NotFound(s.NotFoundHandler())
	return r
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
