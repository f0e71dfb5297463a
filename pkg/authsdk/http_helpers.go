package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// call describes one request to the service.
type call struct {
	method string
	path   string

	// payload is sent as JSON when non-nil.
	payload any

	// bearer becomes the Authorization header when set.
	bearer string

	// header carries extra request headers.
	header map[string]string

	// want is the only status treated as success.
	want int
}

func (c *SDKClient) userAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}

// send performs cl and returns the body of a successful response. Any other
// status becomes an *APIError.
func (c *SDKClient) send(ctx context.Context, cl call) ([]byte, error) {
	var body io.Reader
	if cl.payload != nil {
		raw, err := json.Marshal(cl.payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.BaseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")
	if cl.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	}
	for k, v := range cl.header {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	want := cl.want
	if want == 0 {
		want = http.StatusOK
	}
	if resp.StatusCode != want {
		return nil, parseErrorResponse(resp, raw)
	}
	return raw, nil
}

// sendJSON performs cl and decodes the response into a T.
func sendJSON[T any](ctx context.Context, c *SDKClient, cl call) (*T, error) {
	raw, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

var errNoAccessToken = errors.New("authsdk: session has no access token")

// authorize attaches the session's access token. It does not renew; that
// is the Renewer's job.
func (s *Session) authorize(cl call) (call, error) {
	token := s.AccessToken()
	if token == "" {
		return cl, errNoAccessToken
	}
	cl.bearer = token
	return cl, nil
}

// sessionJSON is sendJSON for bearer-protected endpoints.
func sessionJSON[T any](ctx context.Context, s *Session, cl call) (*T, error) {
	cl, err := s.authorize(cl)
	if err != nil {
		return nil, err
	}
	return sendJSON[T](ctx, s.client, cl)
}
