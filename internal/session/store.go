package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/ntce/share-front/internal/crypto"
	"github.com/ntce/share-front/internal/log"
)

// Store encodes pipeline state into client-held cookies. It keeps no state of
// its own; every write and clear is expressed purely as response headers.
//
// The access token cookie is sealed (authenticated encryption) so the bearer
// credential is neither readable nor forgeable client-side. The identity
// cookie is HMAC-signed: the URN is not secret but must be tamper-evident.
// The display name is plain and readable by page scripts.
type Store struct {
	sealer          crypto.Sealer
	identitySigner  crypto.TokenSigner
	handshakeSigner crypto.TokenSigner
	secure          bool
	sessionTTL      time.Duration
	handshakeTTL    time.Duration
}

// NewStore creates a cookie store. secure controls the cookie Secure
// attribute and should be true for production-like deployments.
func NewStore(signingKey, sealingKey []byte, sessionTTL, handshakeTTL time.Duration, secure bool) *Store {
	return &Store{
		sealer:          crypto.NewSealer(sealingKey),
		identitySigner:  crypto.NewTokenSigner(signingKey, sessionTTL),
		handshakeSigner: crypto.NewTokenSigner(signingKey, handshakeTTL),
		secure:          secure,
		sessionTTL:      sessionTTL,
		handshakeTTL:    handshakeTTL,
	}
}

func (s *Store) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (s *Store) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// Write materializes a session as long-lived cookies
func (s *Store) Write(w http.ResponseWriter, sess Session) error {
	sealed, err := s.sealer.Seal(sess.AccessToken)
	if err != nil {
		return err
	}
	signed, err := s.identitySigner.Sign(sess.PersonURN)
	if err != nil {
		return err
	}

	s.setCookie(w, AccessTokenCookie, sealed, s.sessionTTL, true)
	s.setCookie(w, PersonCookie, signed, s.sessionTTL, true)
	s.setCookie(w, DisplayNameCookie, url.QueryEscape(sess.DisplayName), s.sessionTTL, false)

	log.LogTraceWithFields("session", "Session cookies set", map[string]any{
		"maxAge": s.sessionTTL.String(),
		"secure": s.secure,
	})
	return nil
}

// Read reconstructs the session from request cookies. Returns ErrNoSession
// when the cookies are absent and ErrInvalidSession when they are present but
// fail authentication or the identity-format invariant.
func (s *Store) Read(r *http.Request) (Session, error) {
	tokenCookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return Session{}, ErrNoSession
	}
	personCookie, err := r.Cookie(PersonCookie)
	if err != nil {
		return Session{}, ErrNoSession
	}

	accessToken, err := s.sealer.Open(tokenCookie.Value)
	if err != nil || accessToken == "" {
		return Session{}, ErrInvalidSession
	}

	var personURN string
	if err := s.identitySigner.Verify(personCookie.Value, &personURN); err != nil {
		return Session{}, ErrInvalidSession
	}
	if !ValidPersonURN(personURN) {
		return Session{}, ErrInvalidSession
	}

	sess := Session{
		AccessToken: accessToken,
		PersonURN:   personURN,
	}
	if c, err := r.Cookie(DisplayNameCookie); err == nil {
		if name, err := url.QueryUnescape(c.Value); err == nil {
			sess.DisplayName = name
		}
	}
	return sess, nil
}

// Clear removes the session cookies
func (s *Store) Clear(w http.ResponseWriter) {
	s.clearCookie(w, AccessTokenCookie)
	s.clearCookie(w, PersonCookie)
	s.clearCookie(w, DisplayNameCookie)
	log.LogTraceWithFields("session", "Session cookies cleared", nil)
}

// ClearAll removes session and handshake cookies unconditionally
func (s *Store) ClearAll(w http.ResponseWriter) {
	s.Clear(w)
	s.ClearHandshake(w)
}

// WriteHandshake persists the authorization handshake as a single signed,
// short-lived cookie. The signed payload carries its own expiry so a lingering
// cookie cannot outlive the 5-minute window.
func (s *Store) WriteHandshake(w http.ResponseWriter, h Handshake) error {
	token, err := s.handshakeSigner.Sign(h)
	if err != nil {
		return err
	}
	s.setCookie(w, HandshakeCookie, token, s.handshakeTTL, true)
	return nil
}

// ReadHandshake reads and verifies the handshake cookie. A missing, expired,
// or tampered cookie reads as absent; the CSRF check downstream rejects the
// callback either way.
func (s *Store) ReadHandshake(r *http.Request) (Handshake, bool) {
	c, err := r.Cookie(HandshakeCookie)
	if err != nil {
		return Handshake{}, false
	}
	var h Handshake
	if err := s.handshakeSigner.Verify(c.Value, &h); err != nil {
		log.LogWarnWithFields("session", "Handshake cookie rejected", map[string]any{
			"error": err.Error(),
		})
		return Handshake{}, false
	}
	return h, true
}

// ClearHandshake removes the handshake cookie, making the handshake
// single-use: a replayed callback finds no saved state and fails the CSRF check
func (s *Store) ClearHandshake(w http.ResponseWriter) {
	s.clearCookie(w, HandshakeCookie)
}
