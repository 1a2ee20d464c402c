package wikibase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/pkg/types"
)

// entityJSON is the wire form of an entity in wbgetentities and
// wbeditentity payloads.
type entityJSON struct {
	ID           string                     `json:"id,omitempty"`
	Type         string                     `json:"type,omitempty"`
	Datatype     string                     `json:"datatype,omitempty"`
	Missing      *string                    `json:"missing,omitempty"`
	Labels       map[string]termJSON        `json:"labels,omitempty"`
	Descriptions map[string]termJSON        `json:"descriptions,omitempty"`
	Claims       map[string][]statementJSON `json:"claims,omitempty"`
}

type termJSON struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type statementJSON struct {
	Type       string                `json:"type"`
	Rank       string                `json:"rank,omitempty"`
	MainSnak   snakJSON              `json:"mainsnak"`
	Qualifiers map[string][]snakJSON `json:"qualifiers,omitempty"`
	References []referenceJSON       `json:"references,omitempty"`
}

type referenceJSON struct {
	Snaks map[string][]snakJSON `json:"snaks"`
}

type snakJSON struct {
	SnakType  string         `json:"snaktype"`
	Property  string         `json:"property"`
	Datatype  string         `json:"datatype,omitempty"`
	DataValue *dataValueJSON `json:"datavalue,omitempty"`
}

type dataValueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// GetEntity fetches an entity by local id and hydrates it fully.
// Returns storage.ErrNotFound when the id does not exist.
func (c *Client) GetEntity(ctx context.Context, id types.EntityID) (*types.Entity, error) {
	var resp struct {
		Entities map[string]entityJSON `json:"entities"`
	}
	err := c.get(ctx, url.Values{
		"action": {"wbgetentities"},
		"ids":    {id.String()},
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "no-such-entity" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	raw, ok := resp.Entities[id.String()]
	if !ok || raw.Missing != nil {
		return nil, storage.ErrNotFound
	}
	return decodeEntity(raw)
}

// WriteEntity persists the entity: a create (new=item|property) when the
// id is unset, an update otherwise. The persisted entity, with its
// assigned id, is returned. A label+description conflict comes back as
// *DuplicateError.
func (c *Client) WriteEntity(ctx context.Context, e *types.Entity) (*types.Entity, error) {
	if err := c.waitEdit(ctx); err != nil {
		return nil, err
	}
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return nil, fmt.Errorf("wikibase: failed to fetch edit token: %w", err)
	}

	data, err := json.Marshal(encodeEntity(e))
	if err != nil {
		return nil, fmt.Errorf("wikibase: failed to encode entity: %w", err)
	}

	params := url.Values{
		"action": {"wbeditentity"},
		"data":   {string(data)},
		"token":  {token},
		"bot":    {"1"},
	}
	if e.ID.IsZero() {
		params.Set("new", string(e.Kind))
	} else {
		params.Set("id", e.ID.String())
	}

	var resp struct {
		Entity entityJSON `json:"entity"`
	}
	if err := c.postForm(ctx, params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if dup, ok := asDuplicate(apiErr); ok {
				return nil, dup
			}
		}
		return nil, err
	}
	return decodeEntity(resp.Entity)
}

// MergeEntities folds source into target via wbmergeitems and reports
// which id ended up where.
func (c *Client) MergeEntities(ctx context.Context, source, target types.EntityID) (types.MergeResult, error) {
	if err := c.waitEdit(ctx); err != nil {
		return types.MergeResult{}, err
	}
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return types.MergeResult{}, fmt.Errorf("wikibase: failed to fetch merge token: %w", err)
	}

	var resp struct {
		From struct {
			ID string `json:"id"`
		} `json:"from"`
		To struct {
			ID string `json:"id"`
		} `json:"to"`
	}
	err = c.postForm(ctx, url.Values{
		"action": {"wbmergeitems"},
		"fromid": {source.String()},
		"toid":   {target.String()},
		"token":  {token},
		"bot":    {"1"},
	}, &resp)
	if err != nil {
		return types.MergeResult{}, err
	}

	from, err := types.ParseLocalID(resp.From.ID)
	if err != nil {
		return types.MergeResult{}, fmt.Errorf("wikibase: merge response: %w", err)
	}
	to, err := types.ParseLocalID(resp.To.ID)
	if err != nil {
		return types.MergeResult{}, fmt.Errorf("wikibase: merge response: %w", err)
	}
	return types.MergeResult{From: from, To: to}, nil
}

// encodeEntity renders the wbeditentity data payload.
func encodeEntity(e *types.Entity) entityJSON {
	out := entityJSON{}
	if len(e.Labels) > 0 {
		out.Labels = map[string]termJSON{}
		for lang, v := range e.Labels {
			out.Labels[lang] = termJSON{Language: lang, Value: v}
		}
	}
	if len(e.Descriptions) > 0 {
		out.Descriptions = map[string]termJSON{}
		for lang, v := range e.Descriptions {
			out.Descriptions[lang] = termJSON{Language: lang, Value: v}
		}
	}
	if e.Kind == types.KindProperty && e.Datatype != "" && e.ID.IsZero() {
		out.Datatype = string(e.Datatype)
	}
	if len(e.Claims) > 0 {
		out.Claims = map[string][]statementJSON{}
		for _, claim := range e.Claims {
			key := claim.Property.String()
			out.Claims[key] = append(out.Claims[key], encodeStatement(claim))
		}
	}
	return out
}

func encodeStatement(claim types.Claim) statementJSON {
	st := statementJSON{
		Type: "statement",
		Rank: "normal",
		MainSnak: snakJSON{
			SnakType:  "value",
			Property:  claim.Property.String(),
			Datatype:  string(claim.Datatype),
			DataValue: encodeDataValue(claim.Datatype, claim.Value),
		},
	}
	for _, q := range claim.Qualifiers {
		if st.Qualifiers == nil {
			st.Qualifiers = map[string][]snakJSON{}
		}
		key := q.Property.String()
		st.Qualifiers[key] = append(st.Qualifiers[key], stringSnak(q))
	}
	if len(claim.References) > 0 {
		ref := referenceJSON{Snaks: map[string][]snakJSON{}}
		for _, r := range claim.References {
			key := r.Property.String()
			ref.Snaks[key] = append(ref.Snaks[key], stringSnak(r))
		}
		st.References = []referenceJSON{ref}
	}
	return st
}

func stringSnak(s types.Snak) snakJSON {
	raw, _ := json.Marshal(s.Value)
	return snakJSON{
		SnakType: "value",
		Property: s.Property.String(),
		Datatype: string(types.DatatypeString),
		DataValue: &dataValueJSON{
			Type:  "string",
			Value: raw,
		},
	}
}

// encodeDataValue maps a claim payload to its wire shape.
func encodeDataValue(datatype types.Datatype, value types.Value) *dataValueJSON {
	if value == nil {
		return nil
	}
	switch datatype {
	case types.DatatypeItem, types.DatatypeProperty:
		id, _ := types.ParseLocalID(value.String())
		entityType := "item"
		if id.Kind == types.KindProperty {
			entityType = "property"
		}
		raw, _ := json.Marshal(map[string]any{
			"entity-type": entityType,
			"numeric-id":  id.Number,
			"id":          id.String(),
		})
		return &dataValueJSON{Type: "wikibase-entityid", Value: raw}
	case types.DatatypeMonolingualText:
		text, _ := value.(types.MonolingualTextValue)
		raw, _ := json.Marshal(map[string]string{
			"text":     text.Text,
			"language": text.Language,
		})
		return &dataValueJSON{Type: "monolingualtext", Value: raw}
	case types.DatatypeTime:
		raw, _ := json.Marshal(map[string]any{
			"time":          value.String(),
			"timezone":      0,
			"before":        0,
			"after":         0,
			"precision":     11,
			"calendarmodel": "http://www.wikidata.org/entity/Q1985727",
		})
		return &dataValueJSON{Type: "time", Value: raw}
	case types.DatatypeQuantity:
		raw, _ := json.Marshal(map[string]string{
			"amount": value.String(),
			"unit":   "1",
		})
		return &dataValueJSON{Type: "quantity", Value: raw}
	default:
		raw, _ := json.Marshal(value.String())
		return &dataValueJSON{Type: "string", Value: raw}
	}
}

// decodeEntity hydrates a types.Entity from its wire form.
func decodeEntity(raw entityJSON) (*types.Entity, error) {
	kind := types.KindItem
	if raw.Type == "property" {
		kind = types.KindProperty
	}

	e := types.NewEntity(kind)
	if raw.ID != "" {
		id, err := types.ParseLocalID(raw.ID)
		if err != nil {
			return nil, fmt.Errorf("wikibase: entity response: %w", err)
		}
		e.ID = id
		e.Kind = id.Kind
	}
	e.Datatype = types.Datatype(raw.Datatype)

	for lang, term := range raw.Labels {
		e.Labels[lang] = term.Value
	}
	for lang, term := range raw.Descriptions {
		e.Descriptions[lang] = term.Value
	}

	for prop, statements := range raw.Claims {
		propID, err := types.ParseLocalID(prop)
		if err != nil {
			return nil, fmt.Errorf("wikibase: claim property in response: %w", err)
		}
		for _, st := range statements {
			claim, ok, err := decodeStatement(propID, st)
			if err != nil {
				return nil, err
			}
			if ok {
				e.Claims = append(e.Claims, claim)
			}
		}
	}
	return e, nil
}

// decodeStatement converts one wire statement back into a Claim. Snaks
// without a value (novalue/somevalue) are skipped.
func decodeStatement(prop types.EntityID, st statementJSON) (types.Claim, bool, error) {
	snak := st.MainSnak
	if snak.SnakType != "value" || snak.DataValue == nil {
		return types.Claim{}, false, nil
	}

	datatype := types.Datatype(snak.Datatype)
	raw, err := decodeDataValue(datatype, snak.DataValue)
	if err != nil {
		return types.Claim{}, false, fmt.Errorf("wikibase: claim for %s: %w", prop, err)
	}

	value, err := types.NewValue(datatype, raw)
	if err != nil {
		// Datatypes outside the known enumeration are preserved as
		// literal payloads rather than dropped.
		value = types.LiteralValue(raw)
	}
	return types.Claim{Property: prop, Datatype: datatype, Value: value}, true, nil
}

// decodeDataValue extracts the scalar payload of a wire datavalue.
func decodeDataValue(datatype types.Datatype, dv *dataValueJSON) (string, error) {
	switch datatype {
	case types.DatatypeItem, types.DatatypeProperty:
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return "", err
		}
		return v.ID, nil
	case types.DatatypeMonolingualText:
		var v struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return "", err
		}
		return v.Text, nil
	case types.DatatypeTime:
		var v struct {
			Time string `json:"time"`
		}
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return "", err
		}
		return v.Time, nil
	case types.DatatypeQuantity:
		var v struct {
			Amount string `json:"amount"`
		}
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return "", err
		}
		return v.Amount, nil
	default:
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil {
			// Structured payloads for exotic datatypes are carried
			// through as their raw JSON.
			return string(dv.Value), nil
		}
		return s, nil
	}
}
