package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key-32-bytes-long!!"), time.Hour)

	token, err := signer.Sign(testPayload{Name: "alpha", Count: 3})
	require.NoError(t, err)

	var out testPayload
	require.NoError(t, signer.Verify(token, &out))
	assert.Equal(t, "alpha", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestTokenSigner_RejectsTampering(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key-32-bytes-long!!"), time.Hour)

	token, err := signer.Sign(testPayload{Name: "alpha"})
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)

	var out testPayload
	assert.Error(t, signer.Verify("tampered."+parts[1], &out))
	assert.Error(t, signer.Verify(parts[0]+".tampered", &out))
	assert.Error(t, signer.Verify("not-a-token", &out))
}

func TestTokenSigner_RejectsWrongKey(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key-32-bytes-long!!"), time.Hour)
	other := NewTokenSigner([]byte("another-signing-key-32-bytes!!!!"), time.Hour)

	token, err := signer.Sign(testPayload{Name: "alpha"})
	require.NoError(t, err)

	var out testPayload
	assert.Error(t, other.Verify(token, &out))
}

func TestTokenSigner_RejectsExpired(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key-32-bytes-long!!"), -time.Minute)

	token, err := signer.Sign(testPayload{Name: "alpha"})
	require.NoError(t, err)

	var out testPayload
	err = signer.Verify(token, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
