package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*Document, error) {
	var doc Document
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.Snapshot == nil {
		return nil, fmt.Errorf("failed to parse JSON: missing snapshot")
	}

	// Indented output re-indents the raw attributes too
	for i := range doc.Snapshot.Nodes {
		var buf bytes.Buffer
		if err := json.Compact(&buf, doc.Snapshot.Nodes[i].Attributes); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: node %s: %w", doc.Snapshot.Nodes[i].ID, err)
		}
		doc.Snapshot.Nodes[i].Attributes = buf.Bytes()
	}

	return &doc, nil
}

// Export exports a document to JSON
func (c *JSONCodec) Export(doc *Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
