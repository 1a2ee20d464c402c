// Package wikibase implements the graph-store client: a session against
// the MediaWiki action API of a Wikibase instance, plus its SPARQL query
// endpoint. It covers entity reads and writes, entity merges, wiki page
// management and structured queries.
package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the endpoints and credentials for a wikibase session.
type Config struct {
	// APIURL is the MediaWiki action API endpoint (…/w/api.php).
	APIURL string

	// SPARQLURL is the query service endpoint.
	SPARQLURL string

	// SPARQLPrefix is an extra PREFIX declaration some deployments
	// require in front of every query. Empty when the endpoint resolves
	// the wdt: namespace on its own.
	SPARQLPrefix string

	// Username and Password are the bot account credentials.
	Username string
	Password string

	// EditsPerSec and EditBurst throttle state-changing API calls.
	EditsPerSec float64
	EditBurst   int

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client is an authenticated session against one wikibase deployment.
// Session state (cookies, credentials) lives here explicitly and is
// established once by New; there is no ambient global state and no
// token refresh beyond surfacing authorization failures.
type Client struct {
	apiURL       string
	sparqlURL    string
	sparqlPrefix string
	http         *http.Client
	limiter      *rate.Limiter
}

// tokenResponse is the shape of action=query&meta=tokens responses.
type tokenResponse struct {
	Query struct {
		Tokens map[string]string `json:"tokens"`
	} `json:"query"`
}

// loginResponse is the shape of action=login responses.
type loginResponse struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

// New opens a session: it builds a cookie-jar HTTP client, fetches a
// login token and performs the bot login. The returned client is ready
// for the lifetime of the process.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EditsPerSec == 0 {
		cfg.EditsPerSec = 2
	}
	if cfg.EditBurst == 0 {
		cfg.EditBurst = 1
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("wikibase: failed to create cookie jar: %w", err)
	}

	c := &Client{
		apiURL:       cfg.APIURL,
		sparqlURL:    cfg.SPARQLURL,
		sparqlPrefix: cfg.SPARQLPrefix,
		http:         &http.Client{Jar: jar, Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.EditsPerSec), cfg.EditBurst),
	}

	if err := c.login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	return c, nil
}

// login fetches a login token and authenticates the bot account.
func (c *Client) login(ctx context.Context, user, password string) error {
	token, err := c.token(ctx, "login")
	if err != nil {
		return fmt.Errorf("wikibase: failed to fetch login token: %w", err)
	}

	var resp loginResponse
	err = c.postForm(ctx, url.Values{
		"action":     {"login"},
		"lgname":     {user},
		"lgpassword": {password},
		"lgtoken":    {token},
	}, &resp)
	if err != nil {
		return fmt.Errorf("wikibase: login request failed: %w", err)
	}
	if resp.Login.Result != "Success" {
		return fmt.Errorf("wikibase: login rejected: %s %s", resp.Login.Result, resp.Login.Reason)
	}
	return nil
}

// token fetches a fresh token of the given type ("login" or "csrf").
// CSRF tokens are fetched per state-changing call, never cached.
func (c *Client) token(ctx context.Context, tokenType string) (string, error) {
	var resp tokenResponse
	err := c.get(ctx, url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {tokenType},
	}, &resp)
	if err != nil {
		return "", err
	}

	token, ok := resp.Query.Tokens[tokenType+"token"]
	if !ok || token == "" {
		return "", fmt.Errorf("wikibase: no %s token in response", tokenType)
	}
	return token, nil
}

// get issues a GET against the action API and decodes the JSON response.
// format=json is always added.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// postForm issues a form-encoded POST against the action API.
func (c *Client) postForm(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// do executes the request and decodes the body. API-level errors (an
// "error" key in the JSON) are returned as *APIError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wikibase: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wikibase: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikibase: unexpected status %d: %s", resp.StatusCode, body)
	}

	if apiErr := parseAPIError(body); apiErr != nil {
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("wikibase: failed to decode response: %w", err)
		}
	}
	return nil
}

// waitEdit blocks until the edit throttle admits another state-changing
// call.
func (c *Client) waitEdit(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wikibase: edit throttle: %w", err)
	}
	return nil
}
