package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// callOpts controls how a single API call is made.
type callOpts struct {
	// post selects a form-encoded POST; false means a query-string GET.
	post bool
	// signed adds an api_sig parameter computed over the request.
	signed bool
	// session adds the session key parameter (implies signed).
	session bool
	// verify decodes the response envelope and surfaces API-level errors.
	// When false, any HTTP-level success is treated as success and the
	// body is returned as-is.
	verify bool
}

// apiError is the JSON error envelope returned by the Last.fm API.
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// call makes a single HTTP request to the Last.fm API.
//
// It handles request construction, signature calculation, the JSON error
// envelope and context cancellation. Calls are made exactly once; retry
// policy belongs to the caller.
func (c *Client) call(ctx context.Context, method string, params map[string]string, opts callOpts) ([]byte, error) {
	// Build request parameters
	reqParams := make(map[string]string, len(params)+4)
	for k, v := range params {
		reqParams[k] = v
	}
	reqParams["method"] = method
	reqParams["api_key"] = c.apiKey

	if opts.session {
		if c.sessionKey == "" {
			return nil, ErrNoSessionKey
		}
		reqParams["sk"] = c.sessionKey
		opts.signed = true
	}

	// The signature covers everything except "format", which is added
	// afterwards. Sign skips it either way.
	if opts.signed {
		reqParams["api_sig"] = Sign(reqParams, c.apiSecret)
	}
	reqParams["format"] = "json"

	values := url.Values{}
	for k, v := range reqParams {
		values.Set(k, v)
	}

	var req *http.Request
	var err error
	if opts.post {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(values.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}
	req.Header.Set("User-Agent", "radioscrobble/1.0")

	c.logDebugf("lastfm: calling %s", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !opts.verify {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		c.logDebugf("lastfm: %s submitted", method)
		return body, nil
	}

	// The API reports failures as a JSON error envelope, usually with a
	// matching non-2xx status code.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return nil, &Error{Code: apiErr.Code, Message: apiErr.Message}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	c.logDebugf("lastfm: %s succeeded", method)
	return body, nil
}
