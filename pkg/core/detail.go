package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Detail is the fully hydrated record returned by a detail lookup. Record
// holds the typed variant; Fields keeps every attribute the registry sent,
// including those the variant does not model (gazette references, dates of
// publication and so on).
type Detail struct {
	Record Record         `json:"record"`
	Fields map[string]any `json:"fields"`
}

// DecodeDetail decodes a detail payload for a record of the given category.
func DecodeDetail(st SourceType, data []byte) (*Detail, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding detail: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decoding detail: empty payload")
	}

	rec, err := DecodeRecordAs(st, data)
	if err != nil {
		return nil, err
	}

	return &Detail{Record: rec, Fields: fields}, nil
}
