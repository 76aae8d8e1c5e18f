package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dersplan/internal/adapters/http/middleware"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/domain/account"
)

const (
	modeSignIn = "signin"
	modeSignUp = "signup"
)

func loginData(mode, email, errMsg, info string) map[string]any {
	if mode != modeSignUp {
		mode = modeSignIn
	}
	return map[string]any{
		"Title": "Giriş",
		"Mode":  mode,
		"Email": email,
		"Error": errMsg,
		"Info":  info,
	}
}

// handleLoginPage handles GET /login.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/plans", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, http.StatusOK, "login.html", loginData(r.URL.Query().Get("mode"), "", "", ""))
}

// handleLogin handles POST /login in both sign-in and sign-up modes.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	mode := r.PostForm.Get("mode")
	input := orchestrators.CredentialsInput{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	deps := orchestrators.AuthDeps{Auth: s.deps.Auth}

	if mode == modeSignUp {
		res, err := orchestrators.ExecuteSignUp(context.WithoutCancel(r.Context()), input, deps)
		if err != nil {
			renderTemplate(w, r, statusFor(err, http.StatusBadGateway), "login.html",
				loginData(modeSignUp, input.Email, userMessage(err), ""))
			return
		}
		if res.PendingConfirmation {
			renderTemplate(w, r, http.StatusOK, "login.html", loginData(modeSignIn, input.Email, "",
				"Hesabınız oluşturuldu. Giriş yapmadan önce e-posta adresinize gönderilen bağlantıyla hesabınızı doğrulayın."))
			return
		}
		s.startSession(w, r, res.Identity)
		return
	}

	id, err := orchestrators.ExecuteSignIn(r.Context(), input, deps)
	if err != nil {
		renderTemplate(w, r, statusFor(err, http.StatusBadGateway), "login.html",
			loginData(modeSignIn, input.Email, userMessage(err), ""))
		return
	}
	s.startSession(w, r, id)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, id account.Identity) {
	token, _, err := s.sessions.Create(id)
	if err != nil {
		internalError(w, err)
		return
	}
	s.sessions.SetCookie(w, token)
	http.Redirect(w, r, "/plans", http.StatusSeeOther)
}

// handleLogout handles POST /logout. The local session is cleared even
// when the authenticator could not be reached.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		orchestrators.ExecuteSignOut(r.Context(), sess.Identity, orchestrators.AuthDeps{Auth: s.deps.Auth})
		s.deps.Drafts.Discard(r.Context(), sess.ID)
	}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleActivate handles GET /activate?token=... for local accounts.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Accounts == nil {
		s.handleNotFound(w, r)
		return
	}
	err := orchestrators.ExecuteActivateAccount(r.Context(), r.URL.Query().Get("token"),
		orchestrators.ActivateAccountDeps{AccountStore: s.deps.Accounts, Now: s.now})
	if err != nil {
		slog.Info("auth_event", "event", "activation_failed", "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, account.ErrAlreadyActivated) {
			status = http.StatusOK
		}
		renderTemplate(w, r, status, "activate.html", map[string]any{
			"Title": "Hesap Etkinleştirme",
			"Error": userMessage(err),
		})
		return
	}
	renderTemplate(w, r, http.StatusOK, "activate.html", map[string]any{
		"Title":   "Hesap Etkinleştirme",
		"Success": true,
	})
}
