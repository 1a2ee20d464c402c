package wikibase

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/graphport/wbclient/pkg/types"
)

// APIError is an error reported by the MediaWiki action API itself
// (HTTP 200 with an "error" object). Payload carries the raw upstream
// error object so callers can log or inspect it.
type APIError struct {
	Code    string          `json:"code"`
	Info    string          `json:"info"`
	Payload json.RawMessage `json:"-"`

	Messages []apiMessage `json:"messages"`
}

type apiMessage struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wikibase: api error %s: %s", e.Code, e.Info)
}

// DuplicateError reports a write rejected because an entity with the
// same label and description already exists. ConflictingID is the entry
// that holds them.
type DuplicateError struct {
	ConflictingID types.EntityID
	API           *APIError
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("wikibase: entity with same label and description already exists as %s", e.ConflictingID)
}

func (e *DuplicateError) Unwrap() error { return e.API }

// ConflictingEntity returns the id of the existing entry, letting
// callers recover it without depending on this package's error type.
func (e *DuplicateError) ConflictingEntity() types.EntityID { return e.ConflictingID }

// PageError reports a rejected wiki page operation (delete or move),
// carrying the upstream error payload.
type PageError struct {
	Op    string // "delete" or "move"
	Title string
	API   *APIError
}

func (e *PageError) Error() string {
	return fmt.Sprintf("wikibase: page %s of %q failed: %v", e.Op, e.Title, e.API)
}

func (e *PageError) Unwrap() error { return e.API }

// errorEnvelope detects the API-level error object in a response body.
type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// parseAPIError returns the *APIError embedded in body, or nil when the
// response is not an error.
func parseAPIError(body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return nil
	}

	// Preserve the raw upstream payload for the caller.
	var raw struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		env.Error.Payload = raw.Error
	}
	return env.Error
}

var conflictingIDPattern = regexp.MustCompile(`Q\d+|P\d+`)

// asDuplicate inspects a modification-failed API error for the id of the
// entity holding the conflicting label+description. The id is taken from
// the structured message parameters when present; the documented
// fallback scans the error text.
func asDuplicate(apiErr *APIError) (*DuplicateError, bool) {
	if apiErr.Code != "modification-failed" {
		return nil, false
	}

	for _, msg := range apiErr.Messages {
		for _, param := range msg.Parameters {
			if m := conflictingIDPattern.FindString(param); m != "" {
				if id, err := types.ParseLocalID(m); err == nil {
					return &DuplicateError{ConflictingID: id, API: apiErr}, true
				}
			}
		}
	}

	if m := conflictingIDPattern.FindString(apiErr.Info); m != "" {
		if id, err := types.ParseLocalID(m); err == nil {
			return &DuplicateError{ConflictingID: id, API: apiErr}, true
		}
	}
	return nil, false
}
