package wikibase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// DeletePage deletes a wiki page. A fresh CSRF token is fetched for the
// call; an API-level rejection surfaces as *PageError with the upstream
// payload.
func (c *Client) DeletePage(ctx context.Context, title string) error {
	if err := c.waitEdit(ctx); err != nil {
		return err
	}
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("wikibase: failed to fetch delete token: %w", err)
	}

	err = c.postForm(ctx, url.Values{
		"action": {"delete"},
		"title":  {title},
		"token":  {token},
		"reason": {"Duplicate"},
	}, nil)
	return pageOpError("delete", title, err)
}

// MovePage renames a wiki page from one title to another. The target
// slot must be free; callers delete it first when replacing a page.
func (c *Client) MovePage(ctx context.Context, from, to string) error {
	if err := c.waitEdit(ctx); err != nil {
		return err
	}
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("wikibase: failed to fetch move token: %w", err)
	}

	err = c.postForm(ctx, url.Values{
		"action": {"move"},
		"from":   {from},
		"to":     {to},
		"token":  {token},
		"reason": {"Duplicate"},
	}, nil)
	return pageOpError("move", from, err)
}

// pageOpError wraps API-level rejections of page operations as
// *PageError; transport errors pass through unchanged.
func pageOpError(op, title string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &PageError{Op: op, Title: title, API: apiErr}
	}
	return err
}
