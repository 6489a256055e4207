// Package web holds the server-rendered page layer: templates, static
// assets, per-browser cookies and the notices shown on the next page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is what every template receives.
type PageData struct {
	Title    string
	Path     string
	User     *domain.User
	LoggedIn bool
	Notices  []Notice
	Form     map[string]string
	Errors   map[string]string
	Data     any
}

type Renderer struct {
	pages   map[string]*template.Template
	browser *Browser
}

var funcs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("₹%.2f", v)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	},
	"upper": strings.ToUpper,
	"add":   func(a, b int) int { return a + b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(browser *Browser) (*Renderer, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := path.Base(entry)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", entry)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = tmpl
	}
	return &Renderer{pages: pages, browser: browser}, nil
}

// Render writes page with status. Session and notices are filled in here so
// handlers only provide their own data.
func (rr *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	tmpl, ok := rr.pages[page]
	if !ok {
		logger.ErrorContext(r.Context(), "Unknown page template", "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data.Path = r.URL.Path
	if s := session.FromContext(r.Context()); s != nil {
		st := s.Get()
		data.LoggedIn = st.Authenticated()
		data.User = st.User
	}
	if rr.browser != nil {
		data.Notices = append(rr.browser.Notices(w, r), data.Notices...)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.ErrorContext(r.Context(), "Failed to render page", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rr *Renderer) Has(page string) bool {
	_, ok := rr.pages[page]
	return ok
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
