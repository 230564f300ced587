package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DaysPerWeek is the number of entries a complete Hours map carries.
const DaysPerWeek = 7

// StringSlice is a thin wrapper around []string that implements
// sql.Scanner and driver.Valuer so it works transparently with jsonb/text columns.
type StringSlice []string

// Scan implements sql.Scanner
func (s *StringSlice) Scan(src interface{}) error {
	if s == nil {
		return fmt.Errorf("dbtypes: Scan on nil *StringSlice")
	}
	if src == nil {
		*s = []string{}
		return nil
	}

	b, err := jsonBytes(src, "StringSlice")
	if err != nil {
		return err
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Value implements driver.Valuer
// Marshals the slice to JSON (works well with jsonb columns).
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Hours maps a day index (0=Sunday .. 6=Saturday) to an "H:MM-H:MM" range.
// Stored as a jsonb object keyed by the day index.
type Hours map[int]string

// Scan implements sql.Scanner
func (h *Hours) Scan(src interface{}) error {
	if h == nil {
		return fmt.Errorf("dbtypes: Scan on nil *Hours")
	}
	if src == nil {
		*h = Hours{}
		return nil
	}

	b, err := jsonBytes(src, "Hours")
	if err != nil {
		return err
	}
	out := Hours{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*h = out
	return nil
}

// Value implements driver.Valuer
func (h Hours) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[int]string(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Missing returns the day indexes that have no entry, in ascending order.
func (h Hours) Missing() []int {
	var out []int
	for day := 0; day < DaysPerWeek; day++ {
		if _, ok := h[day]; !ok {
			out = append(out, day)
		}
	}
	return out
}

func jsonBytes(src interface{}, target string) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("dbtypes: cannot scan type %T into %s", src, target)
	}
}
