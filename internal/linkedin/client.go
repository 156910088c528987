package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ntce/share-front/internal/config"
	"github.com/ntce/share-front/internal/log"
	"golang.org/x/oauth2"
)

const (
	// restliProtocolVersion is required on every versioned API call
	restliProtocolVersion = "2.0.0"

	exchangeTimeout = 10 * time.Second

	// defaultRetryAfter is used when a 429 omits or mangles Retry-After
	defaultRetryAfter = 60
)

// Client talks to LinkedIn's OAuth and REST surfaces. It is safe for
// concurrent use; construct it once at process start.
type Client struct {
	oauth      oauth2.Config
	apiBaseURL string
	apiVersion string
	httpClient *http.Client
	verifier   *IDTokenVerifier
}

// New creates a client from configuration
func New(cfg config.Config) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: string(cfg.ClientSecret),
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		apiVersion: cfg.APIVersion,
		httpClient: httpClient,
		verifier:   NewIDTokenVerifier(cfg.JWKSURL, cfg.Issuer, cfg.ClientID, httpClient),
	}
}

// AuthCodeURL builds the authorization redirect URL embedding state and nonce
func (c *Client) AuthCodeURL(state, nonce string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Exchange swaps an authorization code for tokens. No retry: a failed
// exchange means an expired or already-used code, or misconfiguration,
// neither of which is retryable within the same request.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

func (c *Client) newAPIRequest(ctx context.Context, method, accessToken, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
	req.Header.Set("LinkedIn-Version", c.apiVersion)
	return req, nil
}

// apiGet performs a GET against the API host and decodes a JSON success body
func (c *Client) apiGet(ctx context.Context, accessToken, path string, out any) error {
	req, err := c.newAPIRequest(ctx, http.MethodGet, accessToken, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

// apiPost performs a POST with a JSON body against the API host
func (c *Client) apiPost(ctx context.Context, accessToken, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	req, err := c.newAPIRequest(ctx, http.MethodPost, accessToken, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Body is logged for operators, never returned to callers.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.LogErrorWithFields("linkedin", "API error", map[string]any{
			"status": resp.StatusCode,
			"path":   req.URL.Path,
			"body":   string(body),
		})
		return &apiError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseRetryAfter(header string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && n > 0 {
		return n
	}
	return defaultRetryAfter
}
