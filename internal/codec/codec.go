package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"netsync/internal/adapter"
	"netsync/internal/domain"
)

// Document is the exported result of a run: the loaded snapshot and the
// device records that were quarantined on the way.
type Document struct {
	Snapshot   *domain.Snapshot           `json:"snapshot"`
	Quarantine []adapter.QuarantineRecord `json:"quarantine,omitempty"`
}

// Importer interface for reading an exported document back
type Importer interface {
	Parse(r io.Reader) (*Document, error)
	Format() string
}

// Exporter interface for writing a document in a given format
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Format() string
}

// Codec both exports and imports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for format
func ForFormat(format string) (Codec, error) {
	switch format {
	case "json", "":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// WriteFile exports doc to path. With compress set the encoded bytes are
// snappy block-compressed.
func WriteFile(path string, c Exporter, doc *Document, compress bool) error {
	var buf bytes.Buffer
	if err := c.Export(doc, &buf); err != nil {
		return err
	}

	data := buf.Bytes()
	if compress {
		data = snappy.Encode(nil, data)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadFile reads a document written by WriteFile
func ReadFile(path string, c Importer, compressed bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	if compressed {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress export: %w", err)
		}
	}

	return c.Parse(bytes.NewReader(data))
}
