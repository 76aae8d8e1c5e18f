package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/domain/account"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// turkishMonths are the month names used by formatDate, January first.
var turkishMonths = [12]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// formatDate renders t as "d MMMM yyyy" with Turkish month names.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Day()) + " " + turkishMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// renderMarkdown converts lightweight markup to HTML.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// navItem is one entry of the navigation bar.
type navItem struct {
	Label  string
	Path   string
	Active bool
}

// navItems lists the top-level screens and marks the one at path.
func navItems(path string) []navItem {
	items := []navItem{
		{Label: "Planlarım", Path: "/plans"},
		{Label: "Yeni Plan", Path: "/plans/new"},
		{Label: "Yapay Zekâ ile Plan", Path: "/plans/generate"},
	}
	for i := range items {
		items[i].Active = items[i].Path == path
	}
	return items
}

func generateID() string {
	return uuid.New().String()
}

// renderTemplate executes templateName inside the layout with status.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	email := sess.Identity.Email

	funcMap := template.FuncMap{
		"currentEmail":   func() string { return email },
		"initials":       func() string { return account.Initials(email) },
		"isLoggedIn":     func() bool { return loggedIn },
		"navItems":       func() []navItem { return navItems(r.URL.Path) },
		"csrfToken":      func() string { return csrf.Token(r) },
		"csrfFieldName":  func() string { return "gorilla.csrf.Token" },
		"renderMarkdown": renderMarkdown,
		"formatDate":     formatDate,
		"add":            func(a, b int) int { return a + b },
		"millis":         func(d time.Duration) int64 { return d.Milliseconds() },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// errorPage renders the shared error page with a return-to-list control.
func errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderTemplate(w, r, status, "error.html", map[string]any{
		"Title": "Hata",
		"Error": message,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	errorPage(w, r, http.StatusNotFound, "Aradığınız sayfa bulunamadı.")
}
