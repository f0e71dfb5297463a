//go:build e2e

package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies that login with a wrong password or an
// unknown email gets the same answer.
func TestInvalidCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Login(t.Context(), adminEmail, "wrong-password")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = client.Login(t.Context(), "nobody@example.com", adminPassword)
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}

// TestInvalidAccessToken verifies protected endpoints reject a garbage token.
func TestInvalidAccessToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	invalid := client.NewSession(authsdk.SessionResponse{JWT: "invalid-token-12345"})

	_, err := invalid.Get(t.Context(), "/secure/jwt-only")
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated)
}

// TestTokensFromAnotherInstanceRejected verifies a token from one
// instance is rejected by another with its own ephemeral key.
func TestTokensFromAnotherInstanceRejected(t *testing.T) {
	firstURL, cleanupFirst := setupAuthContainer(t)
	defer cleanupFirst()
	secondURL, cleanupSecond := setupAuthContainer(t)
	defer cleanupSecond()

	session := performLogin(t, authsdk.NewSDKClient(firstURL))

	foreign := authsdk.NewSDKClient(secondURL).NewSession(session.Bundle())
	_, err := foreign.Get(t.Context(), "/secure/jwt-only")
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated)
}

// TestRenewFromDifferentUserAgent verifies a session cannot be renewed by a
// client other than the one that logged in, even with valid tokens.
func TestRenewFromDifferentUserAgent(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	session := performLogin(t, newClient(baseURL, "browser-one/1.0"))

	thief := newClient(baseURL, "browser-two/1.0")
	_, err := thief.RenewSession(t.Context(), authsdk.RenewRequestFor(session.Bundle()))
	require.ErrorIs(t, err, authsdk.ErrSessionUserAgentMismatch)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// The rightful owner still renews.
	_, err = session.Renew(t.Context())
	require.NoError(t, err)
}

// TestRenewWithWrongRefreshToken verifies a valid jwt is not enough to renew.
func TestRenewWithWrongRefreshToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	session := performLogin(t, client)

	req := authsdk.RenewRequestFor(session.Bundle())
	req.RefreshToken = "not-the-refresh-token"
	_, err := client.RenewSession(t.Context(), req)
	require.ErrorIs(t, err, authsdk.ErrSessionInvalid)
}

// TestAdminEndpointRequiresToken verifies an unauthenticated call to the
// admin endpoint is rejected before the role check.
func TestAdminEndpointRequiresToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	resp, err := http.Get(baseURL + "/secure/admin")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
}
