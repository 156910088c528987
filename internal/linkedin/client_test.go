package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ntce/share-front/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCodeURL(t *testing.T) {
	client := newTestClient("https://api.example")

	raw := client.AuthCodeURL("state-abc", "nonce-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-abc", q.Get("state"))
	assert.Equal(t, "nonce-xyz", q.Get("nonce"))
	assert.Contains(t, q.Get("scope"), "w_member_social")
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "the-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"AQV-token","token_type":"Bearer","expires_in":5184000,"id_token":"raw-id-token"}`)
	}))
	t.Cleanup(srv.Close)

	client := New(config.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example/auth/callback",
		Scopes:       "openid",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		APIBaseURL:   srv.URL,
		JWKSURL:      srv.URL + "/jwks",
		Issuer:       "https://issuer.example",
		APIVersion:   "202502",
	})

	token, err := client.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "AQV-token", token.AccessToken)
	assert.Equal(t, "raw-id-token", token.Extra("id_token"))
}

func TestExchange_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	t.Cleanup(srv.Close)

	client := New(config.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example/auth/callback",
		Scopes:       "openid",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		APIBaseURL:   srv.URL,
		JWKSURL:      srv.URL + "/jwks",
		Issuer:       "https://issuer.example",
		APIVersion:   "202502",
	})

	_, err := client.Exchange(context.Background(), "stale-code")
	assert.Error(t, err)
}
