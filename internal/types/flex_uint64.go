package types

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexUint64 is a uint64 that can be unmarshaled from a JSON number or a quoted
// decimal string. Version numbers travel both ways between clients.
type FlexUint64 uint64

// UnmarshalJSON implements the json.Unmarshaler interface. null and "" leave the
// value untouched.
func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("FlexUint64: invalid string %s: %w", data, err)
		}
		if unquoted == "" {
			return nil
		}
		data = []byte(unquoted)
	}

	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("FlexUint64: expected an unsigned integer, got %s", data)
	}
	*f = FlexUint64(n)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(f), 10), nil
}

// Uint64 converts FlexUint64 back to uint64.
func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}

// Ptr returns nil for a nil receiver and the value otherwise.
func (f *FlexUint64) Ptr() *uint64 {
	if f == nil {
		return nil
	}
	v := uint64(*f)
	return &v
}
