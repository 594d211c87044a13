// Package templates holds the embedded page templates and static assets and
// exposes each page as a templ.Component.
package templates

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"

	"vibeshop.com/app/pkg/view"
)

//go:embed layouts/*.html partials/*.html pages/*.html pages/admin/*.html
var files embed.FS

//go:embed static
var static embed.FS

// Static serves /static/*.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Set is the parsed template tree: one clone of the layout per page.
type Set struct {
	pages    map[string]*template.Template
	partials *template.Template
}

func Parse(loc *time.Location) (*Set, error) {
	if loc == nil {
		loc = time.UTC
	}
	base, err := template.New("").Funcs(funcs(loc)).ParseFS(files, "layouts/*.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("templates: parse layout: %w", err)
	}

	set := &Set{pages: map[string]*template.Template{}, partials: base}
	for _, pattern := range []string{"pages/*.html", "pages/admin/*.html"} {
		matches, err := fs.Glob(files, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			t, err := base.Clone()
			if err != nil {
				return nil, err
			}
			if _, err := t.ParseFS(files, m); err != nil {
				return nil, fmt.Errorf("templates: parse %s: %w", m, err)
			}
			name := strings.TrimSuffix(strings.TrimPrefix(m, "pages/"), path.Ext(m))
			set.pages[name] = t
		}
	}
	return set, nil
}

func MustParse(loc *time.Location) *Set {
	s, err := Parse(loc)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Set) Has(name string) bool {
	_, ok := s.pages[name]
	return ok
}

// Page renders a full page inside the layout.
func (s *Set) Page(name string, p view.Page) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t, ok := s.pages[name]
		if !ok {
			return fmt.Errorf("templates: unknown page %q", name)
		}
		return execute(t, w, "base", p)
	})
}

// Fragment renders a named partial without the layout.
func (s *Set) Fragment(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return execute(s.partials, w, name, data)
	})
}

// execute buffers the output so a template error never leaves a half
// written page behind.
func execute(t *template.Template, w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"krw":      view.KRW,
		"number":   func(n int) string { return view.Number(int64(n)) },
		"date":     func(t time.Time) string { return view.Date(t, loc) },
		"datetime": func(t time.Time) string { return view.DateTime(t, loc) },
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
		"hasPrefix": strings.HasPrefix,
	}
}
