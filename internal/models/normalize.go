package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// payload is a loosely-shaped upstream record with its keys folded to a
// canonical form, so "model_id", "modelId" and "ModelID" all read the same.
type payload map[string]json.RawMessage

func canonicalKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

// preferKey reports whether spelling a wins over b when both fold to the
// same canonical key: lowercase (snake_case) spellings first, then the
// lexically smaller key.
func preferKey(a, b string) bool {
	la, lb := a == strings.ToLower(a), b == strings.ToLower(b)
	if la != lb {
		return la
	}
	return a < b
}

func decodePayload(data []byte) (payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := make(payload, len(raw))
	chosen := make(map[string]string, len(raw))
	for k, v := range raw {
		ck := canonicalKey(k)
		if prev, exists := chosen[ck]; exists && !preferKey(k, prev) {
			continue
		}
		chosen[ck] = k
		p[ck] = v
	}
	return p, nil
}

func (p payload) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := p[canonicalKey(k)]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// Int reads an integer that may be a number, a numeric string,
// an Odoo relation pair or `false`.
func (p payload) Int(keys ...string) (int64, error) {
	v, ok := p.lookup(keys...)
	if !ok {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int64(f), nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %q is not a number", keys[0], s)
		}
		return int64(n), nil
	}

	var rel Many2One
	if err := json.Unmarshal(v, &rel); err == nil {
		return rel.ID, nil
	}

	return 0, fmt.Errorf("field %s: unsupported value %s", keys[0], string(v))
}

// String reads text, treating Odoo `false` as empty and taking the
// display name of a relation pair.
func (p payload) String(keys ...string) string {
	v, ok := p.lookup(keys...)
	if !ok {
		return ""
	}

	var s OdooString
	if err := json.Unmarshal(v, &s); err == nil {
		return s.String()
	}

	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	var rel Many2One
	if err := json.Unmarshal(v, &rel); err == nil {
		return rel.Name
	}
	return ""
}

// Bool reads a flag given as bool, 0/1 or "true"/"false".
func (p payload) Bool(keys ...string) bool {
	v, ok := p.lookup(keys...)
	if !ok {
		return false
	}

	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}

	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f != 0
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		parsed, _ := strconv.ParseBool(strings.TrimSpace(s))
		return parsed
	}
	return false
}

// Name reads the display name of a relation field, if the field is one.
func (p payload) Name(keys ...string) string {
	v, ok := p.lookup(keys...)
	if !ok {
		return ""
	}
	var rel Many2One
	if err := json.Unmarshal(v, &rel); err == nil {
		return rel.Name
	}
	return ""
}
