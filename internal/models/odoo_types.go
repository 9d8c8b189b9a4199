package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// OdooString is a custom string type that handles Odoo's dynamic typing.
// Odoo returns `false` (boolean) for empty text fields instead of an empty string.
type OdooString string

// UnmarshalJSON handles dynamic typing from Odoo
func (os *OdooString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*os = OdooString(s)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if !b {
			*os = ""
			return nil
		}
		*os = "true"
		return nil
	}

	return errors.New("OdooString: cannot unmarshal value into string")
}

// Value implements driver.Valuer interface for database storage
func (os OdooString) Value() (driver.Value, error) {
	return string(os), nil
}

// Scan implements sql.Scanner interface for database retrieval
func (os *OdooString) Scan(value interface{}) error {
	if value == nil {
		*os = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*os = OdooString(v)
	case []byte:
		*os = OdooString(string(v))
	default:
		return fmt.Errorf("failed to scan OdooString: %v", value)
	}
	return nil
}

// String returns native string value
func (os OdooString) String() string {
	return string(os)
}

// Many2One is an Odoo relational reference. Odoo encodes it as
// [id, "display name"], or `false` when the relation is empty.
type Many2One struct {
	ID   int64
	Name string
}

// UnmarshalJSON accepts [id, name], a bare id, or false
func (m *Many2One) UnmarshalJSON(data []byte) error {
	var pair []interface{}
	if err := json.Unmarshal(data, &pair); err == nil {
		*m = Many2One{}
		if len(pair) > 0 {
			if f, ok := pair[0].(float64); ok {
				m.ID = int64(f)
			}
		}
		if len(pair) > 1 {
			if s, ok := pair[1].(string); ok {
				m.Name = s
			}
		}
		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*m = Many2One{ID: id}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil && !b {
		*m = Many2One{}
		return nil
	}

	return errors.New("Many2One: cannot unmarshal value into relation")
}

// IsZero reports whether the relation is unset
func (m Many2One) IsZero() bool {
	return m.ID == 0
}
