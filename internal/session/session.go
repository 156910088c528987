package session

import (
	"errors"
	"regexp"
)

// Cookie names. The handshake cookie holds the whole signed handshake payload;
// the session is split across one cookie per field, each with its own scope.
const (
	HandshakeCookie   = "li_oauth_handshake"
	AccessTokenCookie = "li_access_token"
	PersonCookie      = "li_person"
	DisplayNameCookie = "li_display"
)

var (
	// ErrNoSession means no session cookies were presented
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession means session cookies were presented but failed
	// authentication or the identity-format invariant; callers should clear
	// the cookies and force re-authorization
	ErrInvalidSession = errors.New("invalid session")
)

var personURNPattern = regexp.MustCompile(`^urn:li:person:[A-Za-z0-9_-]+$`)

// ValidPersonURN reports whether urn matches the identity-format invariant
func ValidPersonURN(urn string) bool {
	return personURNPattern.MatchString(urn)
}

// Session is the client-held authenticated state. DisplayName is cosmetic
// and never security-relevant.
type Session struct {
	AccessToken string
	PersonURN   string
	DisplayName string
}

// Valid reports whether the session satisfies the sign-in invariant:
// access token and well-formed identity URN both present.
func (s Session) Valid() bool {
	return s.AccessToken != "" && ValidPersonURN(s.PersonURN)
}

// Handshake correlates an authorization redirect with its callback.
// Consumed exactly once; the callback clears it regardless of outcome.
type Handshake struct {
	State     string `json:"state"`
	Nonce     string `json:"nonce"`
	ReturnURL string `json:"return_url"`
}
