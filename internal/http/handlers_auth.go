package http

import (
	"errors"
	"net/http"

	"fintrack/internal/cache"
	"fintrack/internal/identity"
	applog "fintrack/internal/log"
	"fintrack/internal/records"
)

// stateCookieName carries the OAuth state between redirect and callback.
const stateCookieName = "fintrack_oauth_state"

// afterLoginPath is where a successful callback lands.
const afterLoginPath = "/api/me"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.backend.Identity == nil {
		err := s.backend.IdentityErr
		if err == nil {
			err = identity.ErrNotConfigured
		}
		writeError(w, r, applog.OpLogin, err)
		return
	}

	state := s.backend.States.Issue()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/",
		MaxAge:   int(cache.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.backend.Identity.AuthCodeURL(state), http.StatusFound)
}

// handleCallback finishes the OAuth round trip: the state must match the
// cookie set by handleLogin and be unused, then the code is exchanged for a
// profile and the user is signed in.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.backend.Identity == nil {
		writeError(w, r, applog.OpLogin, identity.ErrNotConfigured)
		return
	}
	clearStateCookie(w, r)

	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth)
	q := r.URL.Query()

	if reason := q.Get("error"); reason != "" {
		logger.WarnContext(r.Context(), "Sign-in denied by provider", "reason", sanitizeInput(reason))
		UnauthorizedError("authentication failed").Write(w)
		return
	}

	state := q.Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state || !s.backend.States.Consume(state) {
		logger.WarnContext(r.Context(), "OAuth state mismatch")
		BadRequestError("invalid or expired sign-in attempt").Write(w)
		return
	}

	code := q.Get("code")
	if code == "" {
		BadRequestError("missing authorization code").Write(w)
		return
	}

	profile, err := s.backend.Identity.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, applog.OpLogin, err)
		return
	}

	user, err := s.backend.Accounts.SignIn(r.Context(), profile)
	if err != nil {
		writeError(w, r, applog.OpLogin, err)
		return
	}
	if err := s.backend.Sessions.Issue(w, user.ID); err != nil {
		writeError(w, r, applog.OpLogin, err)
		return
	}

	logger.InfoContext(r.Context(), "User signed in", applog.FieldUserID, user.ID)
	http.Redirect(w, r, afterLoginPath, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	s.backend.Sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, owner int64) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	user, err := s.backend.Store.Users.FindByID(r.Context(), owner)
	if errors.Is(err, records.ErrNotFound) {
		// the session outlived its user
		s.backend.Sessions.Clear(w)
		UnauthorizedError("sign in required").Write(w)
		return
	}
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func clearStateCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
