/*
Package authsdk is the Go client for the gatekeeper authentication service.

# Overview

The package is organized around three types:

  - SDKClient: unauthenticated calls (login, renewal, health) and Session creation
  - Session: the current token pair and the bearer-authenticated calls
  - Renewer: silent renewal of a Session before its refresh token expires

Log in and call a protected endpoint:

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.AuthenticateWithPassword(ctx, "admin@example.com", "password")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)
	body, err := session.Get(ctx, "/secure/jwt-only")

# Session Renewal

The service issues an access token (jwt) and a refresh token together. The
refresh token expires a few minutes before the jwt. Renewing presents both,
plus the email and id of the session, from the same user agent that logged
in. A renewal is accepted until the jwt itself expires.

A Renewer schedules exactly one renewal at the refresh token expiry and
reschedules after every success:

	r := authsdk.NewRenewer(session, authsdk.RenewerOptions{
		OnStateChange: func(s authsdk.RenewerState) { log.Println("renewer:", s) },
	})
	r.Start()
	defer r.Stop()

A failed renewal is not retried. The Renewer moves to RenewerFailed and the
caller has to log in again.

# Error Handling

Every non-success response is returned as an *APIError. The predefined
errors compare by code, so errors.Is works:

	_, err := session.Renew(ctx)
	if errors.Is(err, authsdk.ErrSessionUserAgentMismatch) {
		// the session was started elsewhere
	}

The same type writes the errors on the server side (APIError.WriteError).

# User Agent

Sessions are bound to the User-Agent header seen at login. SDKClient sends
UserAgent (DefaultUserAgent when empty) on every request, so change it only
before logging in.

# Thread Safety

SDKClient, Session and Renewer are safe for concurrent use.
*/
package authsdk
