package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/user"
)

//go:embed all:templates
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"score": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"levels":   func() []core.EducationLevel { return core.EducationLevels },
	"quarters": func() []string { return grade.Quarters },
	"same":     func(a, b interface{}) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
}

type renderer struct {
	templates map[string]*template.Template // {page name: base + page}
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	r := &renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		fname := path.Base(p)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(fname).Funcs(templateFuncs).ParseFS(templatesFS, "templates/_base.gohtml", p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// page is the data handed to every template.
type page struct {
	Title   string
	User    *core.Scope
	Flashes []Flash
	CSRF    string
	Errors  map[string]string
	Data    echo.Map
}

// render writes the named page with the session user & pending flash messages.
func render(ctx echo.Context, code int, name, title string, data echo.Map, fieldErrs ...map[string]string) error {
	p := page{
		Title:   title,
		Flashes: popFlashes(ctx),
		Data:    data,
	}
	if usr, ok := ctx.Get(currentUserKey).(user.User); ok {
		sc := usr.Scope()
		p.User = &sc
	}
	if token, ok := ctx.Get(csrfField).(string); ok {
		p.CSRF = token
	}
	if len(fieldErrs) > 0 {
		p.Errors = fieldErrs[0]
	}
	return ctx.Render(code, name, p)
}

// renderForm re-renders a form page after a failed submission, with a notice for the user.
func renderForm(ctx echo.Context, code int, name, title, notice string, data echo.Map, fieldErrs map[string]string) error {
	if notice != "" {
		if err := addFlash(ctx, flashDanger, notice); err != nil {
			return err
		}
	}
	return render(ctx, code, name, title, data, fieldErrs)
}
