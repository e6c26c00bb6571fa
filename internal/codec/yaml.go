package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"netsync/internal/adapter"
	"netsync/internal/domain"
	"netsync/internal/source"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents the YAML structure for an exported run
type yamlDocument struct {
	RunID      string           `yaml:"run_id"`
	Namespace  string           `yaml:"namespace"`
	Nodes      []yamlNode       `yaml:"nodes"`
	Quarantine []yamlQuarantine `yaml:"quarantine,omitempty"`
}

type yamlNode struct {
	Kind       string         `yaml:"kind"`
	ID         string         `yaml:"id"`
	Key        []string       `yaml:"key,flow"`
	Attributes map[string]any `yaml:"attributes"`
	Children   []domain.Ref   `yaml:"children,omitempty"`
}

type yamlQuarantine struct {
	Reason   string               `yaml:"reason"`
	Message  string               `yaml:"message"`
	Device   source.Device        `yaml:"device"`
	Detail   *source.DeviceDetail `yaml:"device_details,omitempty"`
	Location *yamlPlacement       `yaml:"location_data,omitempty"`
}

type yamlPlacement struct {
	Areas    []string `yaml:"areas,flow"`
	Building string   `yaml:"building"`
	Floor    string   `yaml:"floor,omitempty"`
}

// Parse imports a document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*Document, error) {
	var yd yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yd); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	snap := domain.NewSnapshot(yd.RunID, yd.Namespace)

	// Convert nodes
	for _, yn := range yd.Nodes {
		raw, err := json.Marshal(yn.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: node %s: %w", yn.ID, err)
		}
		// Decode through the typed node so attributes come back in field order
		node, err := domain.DecodeNode(domain.Kind(yn.Kind), raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: node %s: %w", yn.ID, err)
		}
		if err := snap.AddNode(node, yn.Children); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	doc := &Document{Snapshot: snap}

	// Convert quarantine
	for _, yq := range yd.Quarantine {
		rec := adapter.QuarantineRecord{
			Reason:  yq.Reason,
			Message: yq.Message,
			Device:  yq.Device,
			Detail:  yq.Detail,
		}
		if yq.Location != nil {
			rec.Location = &adapter.SitePlacement{
				Areas:    yq.Location.Areas,
				Building: yq.Location.Building,
				Floor:    yq.Location.Floor,
			}
		}
		doc.Quarantine = append(doc.Quarantine, rec)
	}

	return doc, nil
}

// Export exports a document to YAML
func (c *YAMLCodec) Export(doc *Document, w io.Writer) error {
	if doc == nil || doc.Snapshot == nil {
		return fmt.Errorf("failed to encode YAML: missing snapshot")
	}

	yd := yamlDocument{
		RunID:     doc.Snapshot.RunID,
		Namespace: doc.Snapshot.Namespace,
		Nodes:     make([]yamlNode, 0, len(doc.Snapshot.Nodes)),
	}

	// Convert nodes
	for _, node := range doc.Snapshot.Nodes {
		var attrs map[string]any
		if err := json.Unmarshal(node.Attributes, &attrs); err != nil {
			return fmt.Errorf("failed to encode YAML: node %s: %w", node.ID, err)
		}
		yd.Nodes = append(yd.Nodes, yamlNode{
			Kind:       string(node.Kind),
			ID:         node.ID,
			Key:        node.Key,
			Attributes: attrs,
			Children:   node.Children,
		})
	}

	// Convert quarantine
	for _, rec := range doc.Quarantine {
		yq := yamlQuarantine{
			Reason:  rec.Reason,
			Message: rec.Message,
			Device:  rec.Device,
			Detail:  rec.Detail,
		}
		if rec.Location != nil {
			yq.Location = &yamlPlacement{
				Areas:    rec.Location.Areas,
				Building: rec.Location.Building,
				Floor:    rec.Location.Floor,
			}
		}
		yd.Quarantine = append(yd.Quarantine, yq)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
