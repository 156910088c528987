package linkedin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ntce/share-front/internal/log"
	"golang.org/x/oauth2"
)

const identityReadTimeout = 10 * time.Second

type userInfoResponse struct {
	Sub string `json:"sub"`
}

type profileResponse struct {
	ID string `json:"id"`
}

type localizedNameResponse struct {
	LocalizedFirstName string `json:"localizedFirstName"`
	LocalizedLastName  string `json:"localizedLastName"`
}

// ResolveIdentity extracts a stable person URN from the token response.
// Ordered fallback, first success wins: verified ID token, then the userinfo
// endpoint, then the legacy profile endpoint. Each step is independent and
// skippable on failure.
func (c *Client) ResolveIdentity(ctx context.Context, token *oauth2.Token, nonce string) (string, error) {
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		sub, err := c.verifier.Verify(ctx, rawIDToken, nonce)
		if err == nil {
			return personURN(sub), nil
		}
		log.LogWarnWithFields("linkedin", "ID token rejected, falling back to userinfo", map[string]any{
			"error": err.Error(),
		})
	}

	if sub, err := c.userInfoSubject(ctx, token.AccessToken); err == nil {
		return personURN(sub), nil
	} else {
		log.LogWarnWithFields("linkedin", "Userinfo lookup failed", map[string]any{
			"error": err.Error(),
		})
	}

	if id, err := c.profileID(ctx, token.AccessToken); err == nil {
		return personURN(id), nil
	} else {
		log.LogErrorWithFields("linkedin", "Profile lookup failed", map[string]any{
			"error": err.Error(),
		})
	}

	return "", ErrIdentityExtraction
}

func personURN(id string) string {
	return "urn:li:person:" + id
}

// retryRead wraps an idempotent GET with a bounded exponential backoff.
// Client errors are permanent; only transport failures and 5xx retry.
func retryRead[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, identityReadTimeout)
		defer cancel()

		v, err := op(callCtx)
		if err != nil {
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.status < 500 {
				return v, backoff.Permanent(err)
			}
			return v, err
		}
		return v, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
}

func (c *Client) userInfoSubject(ctx context.Context, accessToken string) (string, error) {
	sub, err := retryRead(ctx, func(ctx context.Context) (string, error) {
		var info userInfoResponse
		if err := c.apiGet(ctx, accessToken, "/v2/userinfo", &info); err != nil {
			return "", err
		}
		return info.Sub, nil
	})
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("userinfo response missing sub")
	}
	return sub, nil
}

func (c *Client) profileID(ctx context.Context, accessToken string) (string, error) {
	id, err := retryRead(ctx, func(ctx context.Context) (string, error) {
		var profile profileResponse
		if err := c.apiGet(ctx, accessToken, "/v2/me", &profile); err != nil {
			return "", err
		}
		return profile.ID, nil
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("profile response missing id")
	}
	return id, nil
}

// DisplayName fetches the member's localized name. Best-effort: a failure
// returns the empty string and never fails the caller.
func (c *Client) DisplayName(ctx context.Context, accessToken string) string {
	ctx, cancel := context.WithTimeout(ctx, identityReadTimeout)
	defer cancel()

	var name localizedNameResponse
	if err := c.apiGet(ctx, accessToken, "/v2/me?projection=(localizedFirstName,localizedLastName)", &name); err != nil {
		log.LogWarnWithFields("linkedin", "Display name fetch failed", map[string]any{
			"error": err.Error(),
		})
		return ""
	}
	return strings.TrimSpace(name.LocalizedFirstName + " " + name.LocalizedLastName)
}
