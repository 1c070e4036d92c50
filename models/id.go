// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a generated 64-bit primary key. It marshals to a JSON string
// because the values exceed the integer range JavaScript clients can
// represent exactly; on input both string and number forms are
// accepted.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", s, err)
		}
		*id = ID(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// Value stores the ID as the database BIGINT it came from.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

func (id *ID) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*id = ID(v)
	case []byte:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", v, err)
		}
		*id = ID(n)
	default:
		return fmt.Errorf("cannot scan %T into models.ID", src)
	}
	return nil
}

// ParseID parses the decimal string form used in URLs and JSON.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(v), nil
}
