package livetiming

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one telemetry event from the live-timing feed. Most topics
// deliver JSON objects, which decode into a field mapping; compressed
// topics (CarData.z, Position.z) may deliver an opaque payload instead,
// in which case the mapping accessors report no fields.
//
// Exactly one of the two representations is populated.
type Record struct {
	fields map[string]any
	raw    json.RawMessage
}

// NewFieldsRecord builds a record from a field mapping.
func NewFieldsRecord(fields map[string]any) Record {
	return Record{fields: fields}
}

// NewRawRecord builds a record from an opaque payload.
func NewRawRecord(raw json.RawMessage) Record {
	return Record{raw: raw}
}

// IsMapping reports whether the record carries a field mapping.
func (r Record) IsMapping() bool {
	return r.fields != nil
}

// Field returns the named field of a mapping record.
func (r Record) Field(name string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns the underlying mapping, or nil for raw records.
func (r Record) Fields() map[string]any {
	return r.fields
}

// MarshalJSON emits the field mapping, or the raw payload verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields != nil {
		return json.Marshal(r.fields)
	}
	if r.raw != nil {
		return r.raw, nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes JSON objects into a field mapping, keeping numbers
// exact, and anything else as a raw payload.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		fields := make(map[string]any)
		if err := dec.Decode(&fields); err != nil {
			return fmt.Errorf("failed to decode record object: %w", err)
		}
		r.fields = fields
		r.raw = nil
		return nil
	}
	r.raw = append(json.RawMessage(nil), trimmed...)
	r.fields = nil
	return nil
}

// Preview returns the record's JSON form truncated to limit bytes, for
// log lines that need to identify an offending payload without dumping it.
func (r Record) Preview(limit int) string {
	data, err := r.MarshalJSON()
	if err != nil {
		data = []byte(fmt.Sprintf("%v", r.fields))
	}
	if limit > 0 && len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

// Batch is one notification from the upstream client: records grouped by
// source topic, ordered within each topic.
type Batch map[string][]Record

// RecordCount returns the total number of records across all topics.
func (b Batch) RecordCount() int {
	n := 0
	for _, records := range b {
		n += len(records)
	}
	return n
}
