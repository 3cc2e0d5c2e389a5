package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hversson/atrium/internal/gate"
	"github.com/hversson/atrium/internal/session"
)

// Login handles POST /login. Credentials go to the backend; on success the
// returned access token becomes the session cookie and the response tells
// the browser where to land (the redirectPath it arrived with, or the
// default landing page).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid form submission"))
			return
		}
		creds.Email = r.PostFormValue("email")
		creds.Password = r.PostFormValue("password")
	}
	if creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("email and password are required"))
		return
	}

	env, err := h.client.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("backend unavailable: "+err.Error()))
		return
	}
	if !env.Success {
		writeJSON(w, http.StatusUnauthorized, env)
		return
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.AccessToken == "" {
		h.logger.Error("login response missing access token")
		writeJSON(w, http.StatusBadGateway, errorBody("backend returned no access token"))
		return
	}
	h.sessions.SetCookie(w, payload.AccessToken, 0)

	// Only same-site absolute paths; "//host" is protocol-relative and
	// would leave the site.
	redirectTo := r.URL.Query().Get(gate.RedirectParam)
	if !strings.HasPrefix(redirectTo, "/") || strings.HasPrefix(redirectTo, "//") {
		redirectTo = h.landing
	}
	writeJSON(w, http.StatusOK, successBody(env.Message, LoginRedirect{RedirectTo: redirectTo}))
}

// Logout handles POST /admin/logout. The backend is told best-effort; the
// cookie is cleared regardless so the browser session always ends.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.client.Logout(r.Context()); err != nil {
		h.logger.Warn("upstream logout failed", slog.String("error", err.Error()))
	}
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, successBody("Logout successful", nil))
}

// Me handles GET /admin/me, returning the identity resolved by the session
// middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := session.UserFrom(r.Context())
	if !ok {
		// The gate should have redirected already; this is a safety net.
		writeJSON(w, http.StatusUnauthorized, errorBody("no session"))
		return
	}
	writeJSON(w, http.StatusOK, successBody("", user))
}

// Root handles GET / for anonymous visitors (the login page in the
// browser). Authenticated users never see it: the gate redirects them to
// the landing page first.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, successBody("authentication required", nil))
}
