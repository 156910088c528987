package server

import (
	"net/http"

	"github.com/ntce/share-front/internal/config"
	"github.com/ntce/share-front/internal/proxy"
	"github.com/ntce/share-front/internal/session"
)

// Client is the full LinkedIn surface the router wires in; satisfied by
// *linkedin.Client
type Client interface {
	OAuthClient
	Publisher
}

// NewRouter builds the HTTP handler tree with shared middleware
func NewRouter(cfg config.Config, sessions *session.Store, linkedIn Client) http.Handler {
	authHandlers := NewAuthHandlers(cfg, sessions, linkedIn)
	publishHandlers := NewPublishHandlers(sessions, linkedIn)

	mux := http.NewServeMux()
	mux.Handle("/health", NewHealthHandler())
	mux.HandleFunc("/auth/start", authHandlers.StartHandler)
	mux.HandleFunc("/auth/callback", authHandlers.CallbackHandler)
	mux.HandleFunc("/auth/status", authHandlers.StatusHandler)
	mux.HandleFunc("/auth/logout", authHandlers.LogoutHandler)
	mux.HandleFunc("/publish", publishHandlers.PublishHandler)
	mux.Handle("/img", proxy.NewImageHandler(cfg.ImageProxyHosts))

	return ChainMiddleware(mux,
		NewRecoverMiddleware(),
		NewLoggingMiddleware(),
		NewCORSMiddleware(cfg.AllowedOrigins),
	)
}
