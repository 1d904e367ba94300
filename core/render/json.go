// Package render — JSON renderer.
// Writes the run's records as a pretty-printed JSON array, the format
// consumed by the upload command and the dashboard.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/motopipe/core"
)

// JSONRenderer produces the canonical record file.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals records with two-space indentation. An empty run still
// yields a valid empty array.
func (r *JSONRenderer) Render(records []core.Record, _ *core.Stats) ([]byte, error) {
	if records == nil {
		records = []core.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// ReadRecords parses a file written by JSONRenderer.
func ReadRecords(data []byte) ([]core.Record, error) {
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return records, nil
}
