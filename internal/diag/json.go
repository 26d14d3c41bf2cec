package diag

import (
	"bytes"
	"encoding/json"
)

// Schema is the stable schema identifier stamped on every encoded
// diagnostic, mirroring the teacher's "ailang.error/v1" convention so
// downstream tooling can version its parser.
const Schema = "lunac.diagnostic/v1"

// Encoded is the wire format for a Diagnostic: stable field names, sorted
// keys, two-space indent — deterministic across runs so golden-file tests
// are meaningful.
type Encoded struct {
	Schema   string         `json:"schema"`
	Severity string         `json:"severity"`
	Code     string         `json:"code"`
	Kind     string         `json:"kind"`
	Message  string         `json:"message"`
	Span     string         `json:"span"`
	Data     map[string]any `json:"data,omitempty"`
}

// Encode converts a Diagnostic to its wire representation.
func Encode(d *Diagnostic) Encoded {
	return Encoded{
		Schema:   Schema,
		Severity: string(d.Severity),
		Code:     d.Code,
		Kind:     string(d.Kind),
		Message:  d.Message,
		Span:     d.Span.String(),
		Data:     d.Data,
	}
}

// MarshalDeterministic renders encodings with sorted map keys and no HTML
// escaping, so two runs over identical input produce byte-identical output.
func MarshalDeterministic(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeAll marshals a full diagnostic batch as a JSON array, the format
// consumed by the `--json` CLI flag and by golden tests.
func EncodeAll(diags []*Diagnostic) ([]byte, error) {
	encoded := make([]Encoded, len(diags))
	for i, d := range diags {
		encoded[i] = Encode(d)
	}
	return MarshalDeterministic(encoded)
}
