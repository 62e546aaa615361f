//go:build sonic_off

package json

import (
	stdjson "encoding/json" //nolint:depguard // fallback when sonic is disabled
)

// Implementation is the active JSON backend
const Implementation = "encoding/json"

var (
	// Marshal returns the JSON encoding of v
	Marshal = stdjson.Marshal
	// Unmarshal parses the JSON-encoded data and stores the result in the value pointed to by v
	Unmarshal = stdjson.Unmarshal
	// MarshalIndent is like Marshal but applies indent to format the output
	MarshalIndent = stdjson.MarshalIndent
	// NewEncoder returns a new encoder that writes to w
	NewEncoder = stdjson.NewEncoder
	// NewDecoder returns a new decoder that reads from r
	NewDecoder = stdjson.NewDecoder
	// Valid reports whether data is a valid JSON encoding
	Valid = stdjson.Valid
)

type (
	// RawMessage is a raw encoded JSON value
	RawMessage = stdjson.RawMessage
	// Number represents a JSON number literal
	Number = stdjson.Number
)
