package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/fairyhunter13/techtrends/internal/domain"
	"github.com/fairyhunter13/techtrends/internal/usecase"
)

//go:embed static
var staticFiles embed.FS

//go:embed templates
var templateFiles embed.FS

// Page template names.
const (
	pageIndex    = "index.html"
	pagePost     = "post.html"
	pageAbout    = "about.html"
	pageCreate   = "create.html"
	pageNotFound = "404.html"
	pageError    = "error.html"
)

// pageData is the view model shared by all pages.
type pageData struct {
	Posts      []domain.Post
	Post       domain.Post
	Form       usecase.CreatePostInput
	Flashes    []string
	Status     int
	StatusText string
}

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	},
}

// parsePages builds one template set per page, each layered on base.html,
// so every page can define its own "title" and "content" blocks.
func parsePages() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFiles, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := path.Base(f)
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/base.html", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

var pageSet = mustParsePages()

func mustParsePages() map[string]*template.Template {
	p, err := parsePages()
	if err != nil {
		panic(err)
	}
	return p
}

// render executes page into a buffer first so a template failure never
// leaves a half-written response behind.
func render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := pageSet[page]
	if !ok {
		LoggerFrom(r).Error("unknown page template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		LoggerFrom(r).Error("template error", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// staticFS exposes the embedded static directory rooted at static/.
func staticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
