package http

import (
	"encoding/json"
)

// DecodeJSON parses body text into a generic value (maps, slices, float64,
// string, bool or nil). There is no fallback to the raw text on failure.
func DecodeJSON(data string) (any, error) {
	var v any
	if err := decodeInto(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeInto(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return newParseError(err)
	}
	return nil
}
