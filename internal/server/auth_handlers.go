package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/ntce/share-front/internal/config"
	"github.com/ntce/share-front/internal/crypto"
	jsonwriter "github.com/ntce/share-front/internal/json"
	"github.com/ntce/share-front/internal/log"
	"github.com/ntce/share-front/internal/session"
	"github.com/ntce/share-front/internal/urlutil"
	"golang.org/x/oauth2"
)

// Error codes surfaced to the landing page as auth_error query parameters.
// The page owns user-facing messaging; internal detail never leaves the logs.
const (
	errOAuthDenied        = "oauth_denied"
	errInvalidState       = "invalid_state"
	errNoCode             = "no_code"
	errTokenExchange      = "token_exchange_failed"
	errIdentityExtraction = "identity_extraction_failed"
	errInternal           = "internal_error"
)

// OAuthClient abstracts the LinkedIn OAuth operations used by the handlers
type OAuthClient interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ResolveIdentity(ctx context.Context, token *oauth2.Token, nonce string) (string, error)
	DisplayName(ctx context.Context, accessToken string) string
}

// AuthHandlers provides the delegated-authorization HTTP handlers
type AuthHandlers struct {
	cfg      config.Config
	sessions *session.Store
	linkedIn OAuthClient
}

// NewAuthHandlers creates auth handlers with dependency injection
func NewAuthHandlers(cfg config.Config, sessions *session.Store, linkedIn OAuthClient) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		sessions: sessions,
		linkedIn: linkedIn,
	}
}

// StartHandler initiates the authorization flow: mints anti-CSRF state and a
// nonce, persists the handshake, and redirects to LinkedIn
func (h *AuthHandlers) StartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	// Validated at startup too; kept as defense in depth
	if h.cfg.ClientID == "" || h.cfg.RedirectURI == "" {
		log.LogError("Missing LinkedIn client configuration")
		jsonwriter.WriteInternalServerError(w, "LinkedIn configuration error")
		return
	}

	state, err := crypto.GenerateSecureToken()
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}
	nonce, err := crypto.GenerateSecureToken()
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	returnPath := urlutil.SanitizeReturnPath(r.URL.Query().Get("return"), h.cfg.DefaultReturnPath)

	if err := h.sessions.WriteHandshake(w, session.Handshake{
		State:     state,
		Nonce:     nonce,
		ReturnURL: returnPath,
	}); err != nil {
		log.LogError("Failed to write handshake cookie: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	log.LogDebugWithFields("auth", "Authorization flow started", map[string]any{
		"return": returnPath,
	})

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.linkedIn.AuthCodeURL(state, nonce), http.StatusFound)
}

// CallbackHandler consumes the authorization redirect: CSRF check, code
// exchange, identity resolution, session materialization. Every terminal
// failure redirects to the return path with an opaque error code.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	saved, hasHandshake := h.sessions.ReadHandshake(r)

	// Single-use: the handshake is destroyed before anything else happens,
	// so a replayed callback fails the CSRF check below.
	h.sessions.ClearHandshake(w)

	returnPath := urlutil.SanitizeReturnPath(saved.ReturnURL, h.cfg.DefaultReturnPath)

	defer func() {
		if rec := recover(); rec != nil {
			log.LogErrorWithFields("auth", "Callback panic", map[string]any{
				"panic": rec,
			})
			h.redirectWithError(w, r, returnPath, errInternal)
		}
	}()

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		log.LogInfoWithFields("auth", "Authorization denied", map[string]any{
			"error":       errParam,
			"description": query.Get("error_description"),
		})
		h.redirectWithError(w, r, returnPath, errOAuthDenied)
		return
	}

	state := query.Get("state")
	if state == "" || !hasHandshake || saved.State == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(saved.State)) != 1 {
		log.LogWarnWithFields("auth", "State mismatch on callback", nil)
		h.redirectWithError(w, r, returnPath, errInvalidState)
		return
	}

	code := query.Get("code")
	if code == "" {
		log.LogWarnWithFields("auth", "Callback missing authorization code", nil)
		h.redirectWithError(w, r, returnPath, errNoCode)
		return
	}

	token, err := h.linkedIn.Exchange(r.Context(), code)
	if err != nil {
		log.LogErrorWithFields("auth", "Token exchange failed", map[string]any{
			"error": err.Error(),
		})
		h.redirectWithError(w, r, returnPath, errTokenExchange)
		return
	}

	personURN, err := h.linkedIn.ResolveIdentity(r.Context(), token, saved.Nonce)
	if err != nil {
		log.LogErrorWithFields("auth", "Identity resolution failed", map[string]any{
			"error": err.Error(),
		})
		h.redirectWithError(w, r, returnPath, errIdentityExtraction)
		return
	}

	displayName := h.linkedIn.DisplayName(r.Context(), token.AccessToken)

	if err := h.sessions.Write(w, session.Session{
		AccessToken: token.AccessToken,
		PersonURN:   personURN,
		DisplayName: displayName,
	}); err != nil {
		log.LogError("Failed to write session cookies: %v", err)
		h.redirectWithError(w, r, returnPath, errInternal)
		return
	}

	log.LogInfoWithFields("auth", "Sign-in completed", map[string]any{
		"person": personURN,
	})

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, returnPath, http.StatusFound)
}

func (h *AuthHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, returnPath, code string) {
	u, err := url.Parse(returnPath)
	if err != nil {
		u = &url.URL{Path: h.cfg.DefaultReturnPath}
	}
	q := u.Query()
	q.Set("auth_error", code)
	u.RawQuery = q.Encode()

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// statusResponse is the signed-in introspection payload
type statusResponse struct {
	SignedIn    bool    `json:"signedIn"`
	DisplayName *string `json:"displayName"`
}

// StatusHandler reports whether the cookie-derived session is signed in.
// Read-only: a corrupt session reads as signed out without touching cookies.
func (h *AuthHandlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	resp := statusResponse{}
	if sess, err := h.sessions.Read(r); err == nil && sess.Valid() {
		resp.SignedIn = true
		if sess.DisplayName != "" {
			resp.DisplayName = &sess.DisplayName
		}
	}
	_ = jsonwriter.Write(w, resp)
}

// LogoutHandler tears down the session: clears every session and handshake
// cookie unconditionally and redirects to the sanitized return destination
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	h.sessions.ClearAll(w)

	returnPath := urlutil.SanitizeReturnPath(r.URL.Query().Get("return"), h.cfg.DefaultReturnPath)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, returnPath, http.StatusFound)
}
