package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// JSON snapshots are larger and slower than gob but portable and
// inspectable; use them when another tool needs to read the payload.
// Note that types relying on gob.GobEncoder (the index implementations)
// do not round-trip through JSON.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
