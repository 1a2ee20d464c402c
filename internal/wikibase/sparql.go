package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// sparqlResponse is the SPARQL 1.1 JSON results format, reduced to what
// the engine consumes.
type sparqlResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Query runs a SPARQL query against the configured endpoint and returns
// the bound values of the first result variable, in result order. The
// deployment-specific PREFIX declaration, when configured, is prepended
// to every query.
func (c *Client) Query(ctx context.Context, query string) ([]string, error) {
	if c.sparqlPrefix != "" {
		query = c.sparqlPrefix + "\n" + query
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sparqlURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikibase: sparql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wikibase: sparql endpoint returned %d: %s", resp.StatusCode, body)
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("wikibase: failed to decode sparql response: %w", err)
	}
	if len(parsed.Head.Vars) == 0 {
		return nil, nil
	}

	first := parsed.Head.Vars[0]
	var values []string
	for _, binding := range parsed.Results.Bindings {
		if b, ok := binding[first]; ok {
			values = append(values, b.Value)
		}
	}
	return values, nil
}
