//go:build !sonic_off

// Package json routes marshalling through sonic with standard library compatible semantics.
package json

import (
	stdjson "encoding/json" //nolint:depguard // RawMessage and Number are shared with the standard library

	"github.com/bytedance/sonic"
)

// Implementation is the active JSON backend
const Implementation = "bytedance/sonic"

var (
	// Marshal returns the JSON encoding of v
	Marshal = sonic.ConfigStd.Marshal
	// Unmarshal parses the JSON-encoded data and stores the result in the value pointed to by v
	Unmarshal = sonic.ConfigStd.Unmarshal
	// MarshalIndent is like Marshal but applies indent to format the output
	MarshalIndent = sonic.ConfigStd.MarshalIndent
	// NewEncoder returns a new encoder that writes to w
	NewEncoder = sonic.ConfigStd.NewEncoder
	// NewDecoder returns a new decoder that reads from r
	NewDecoder = sonic.ConfigStd.NewDecoder
	// Valid reports whether data is a valid JSON encoding
	Valid = sonic.ConfigStd.Valid
)

type (
	// RawMessage is a raw encoded JSON value
	RawMessage = stdjson.RawMessage
	// Number represents a JSON number literal
	Number = stdjson.Number
)
