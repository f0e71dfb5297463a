package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultUserAgent is sent when SDKClient.UserAgent is empty. Sessions are
// bound to the user agent seen at login, so a client must keep it stable.
const DefaultUserAgent = "gatekeeper-authsdk/1"

// SDKClient is a client for the gatekeeper authentication service.
// It covers the unauthenticated endpoints and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// UserAgent is sent on every request.
	UserAgent string
}

// NewSDKClient creates a new auth service client. Its cookie jar keeps the
// session cookie set at login, so renewals and logout send it back.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // only fails on a bad PublicSuffixList
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		UserAgent: DefaultUserAgent,
	}
}

// Login exchanges an email and password for a session bundle.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	return sendJSON[SessionResponse](ctx, c, call{
		method:  http.MethodPost,
		path:    "/auth/login",
		payload: LoginRequest{Email: email, Password: password},
	})
}

// RenewSession swaps a live session for a new one. Each call carries a
// fresh X-Request-ID so server logs can tie the renewal to this client.
func (c *SDKClient) RenewSession(ctx context.Context, req RenewSessionRequest) (*SessionResponse, error) {
	return sendJSON[SessionResponse](ctx, c, call{
		method:  http.MethodPost,
		path:    "/auth/renew-session",
		payload: req,
		header:  map[string]string{"X-Request-ID": uuid.NewString()},
	})
}

// AuthenticateWithPassword logs in and wraps the result in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, error) {
	bundle, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(*bundle), nil
}

// NewSession wraps an existing bundle, e.g. one restored from storage.
func (c *SDKClient) NewSession(bundle SessionResponse) *Session {
	return &Session{client: c, bundle: bundle}
}
