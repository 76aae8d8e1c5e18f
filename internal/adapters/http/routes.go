package web

import (
	"net/http"

	"dersplan/internal/adapters/http/middleware"
)

// routes maps every path to its handler.
// Pages behind the session gate are wrapped in RequireAuth.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/plans", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /activate", s.handleActivate)

	mux.Handle("GET /plans", auth(s.handlePlanList))
	mux.Handle("GET /plans/new", auth(s.handleWizardPage))
	mux.Handle("POST /plans/new", auth(s.handleWizard))
	mux.Handle("GET /plans/quick", auth(s.handleQuickPage))
	mux.Handle("POST /plans/quick", auth(s.handleQuickSave))
	mux.Handle("GET /plans/generate", auth(s.handleGeneratePage))
	mux.Handle("POST /plans/generate", auth(s.handleGenerate))
	mux.Handle("GET /plans/{id}", auth(s.handlePlanDetail))
	mux.Handle("GET /plans/{id}/edit", auth(s.handleEditPage))
	mux.Handle("POST /plans/{id}/edit", auth(s.handleEditSave))
	mux.Handle("GET /plans/{id}/delete", auth(s.handleDeletePage))
	mux.Handle("POST /plans/{id}/delete", auth(s.handleDelete))

	mux.HandleFunc("/", s.handleNotFound)
	return mux
}
