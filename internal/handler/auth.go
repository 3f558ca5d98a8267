package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/auth"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler manages the Google OAuth login flow and the session cookie.
//
//	HandleGoogleLogin    → redirect the browser to Google's consent page
//	HandleGoogleCallback → receive the code, log the user in, set the cookie
//	HandleCurrentUser    → report who is logged in (or that nobody is)
//	HandleLogout         → clear the session cookie
type AuthHandler struct {
	google      *auth.GoogleProvider
	authService *service.AuthService
	tokens      *auth.TokenService
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. frontendURL is where the browser
// lands after the OAuth flow finishes, success or not.
func NewAuthHandler(
	google *auth.GoogleProvider,
	authService *service.AuthService,
	tokens *auth.TokenService,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google:      google,
		authService: authService,
		tokens:      tokens,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// HandleGoogleLogin redirects the user to Google's consent page.
//
// HTTP: GET /auth/google/login
//
// A random state value goes into a short-lived HttpOnly cookie; the
// callback verifies it to prove the flow started on this server and not
// on a CSRF attacker's page.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
//  1. Verify the state parameter against the cookie
//  2. Exchange the code for a Google profile
//  3. Log the user in (upsert + admin verdict + JWT)
//  4. Set the session cookie and send the browser back to the frontend
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user declined on Google's consent page.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: consent denied", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authService.LoginOrRegisterGoogle(r.Context(), profile)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.String("email", profile.Email),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// The JWT lives in an HttpOnly cookie: JavaScript never sees it, and
	// SameSite=Lax keeps it off cross-site POSTs. Secure belongs on in
	// production behind HTTPS.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.frontendURL, http.StatusSeeOther)
}

// HandleCurrentUser reports the logged-in user, or null when nobody is.
//
// HTTP: GET /auth/current-user
//
// The frontend polls this on page load to decide what to render, so an
// anonymous visitor gets 200 with a null user rather than a 401. The
// route uses OptionalAuth; a missing or invalid token simply means no
// userID in the context.
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		// A valid token for a user who no longer exists reads as logged out.
		h.logger.Warn("current-user: lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// The session is stateless, so logout is purely client-side: the token
// stays valid until it expires, but the browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
