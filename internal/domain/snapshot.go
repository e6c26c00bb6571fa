package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Snapshot is the serializable form of a loaded graph
type Snapshot struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	Namespace string         `json:"namespace" yaml:"namespace"`
	Nodes     []SnapshotNode `json:"nodes" yaml:"nodes"`
}

// SnapshotNode is one node with its attributes and ordered children
type SnapshotNode struct {
	Kind       Kind            `json:"kind" yaml:"kind"`
	ID         string          `json:"id" yaml:"id"`
	Key        Key             `json:"key" yaml:"key"`
	Attributes json.RawMessage `json:"attributes" yaml:"-"`
	Children   []Ref           `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot(runID, namespace string) *Snapshot {
	return &Snapshot{
		RunID:     runID,
		Namespace: namespace,
		Nodes:     make([]SnapshotNode, 0),
	}
}

// AddNode appends a node and its children to the snapshot
func (s *Snapshot) AddNode(n Node, children []Ref) error {
	attrs, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", n.Kind(), n.Key(), err)
	}
	s.Nodes = append(s.Nodes, SnapshotNode{
		Kind:       n.Kind(),
		ID:         n.Key().String(),
		Key:        n.Key(),
		Attributes: attrs,
		Children:   children,
	})
	return nil
}

// Count returns the number of nodes of the given kind
func (s *Snapshot) Count(kind Kind) int {
	count := 0
	for _, n := range s.Nodes {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// Decode rebuilds the typed node from its stored attributes
func (n SnapshotNode) Decode() (Node, error) {
	return DecodeNode(n.Kind, n.Attributes)
}

// DecodeNode unmarshals JSON attributes into the concrete type for kind
func DecodeNode(kind Kind, data []byte) (Node, error) {
	var (
		node Node
		err  error
	)
	switch kind {
	case KindArea:
		var v Area
		err = json.Unmarshal(data, &v)
		node = v
	case KindBuilding:
		var v Building
		err = json.Unmarshal(data, &v)
		node = v
	case KindFloor:
		var v Floor
		err = json.Unmarshal(data, &v)
		node = v
	case KindDevice:
		var v Device
		err = json.Unmarshal(data, &v)
		node = v
	case KindPort:
		var v Port
		err = json.Unmarshal(data, &v)
		node = v
	case KindPrefix:
		var v Prefix
		err = json.Unmarshal(data, &v)
		node = v
	case KindAddress:
		var v Address
		err = json.Unmarshal(data, &v)
		node = v
	case KindAddressBinding:
		var v AddressBinding
		err = json.Unmarshal(data, &v)
		node = v
	default:
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return node, nil
}

// Fingerprint hashes the snapshot content independent of insertion order.
// Two loads of the same input produce the same fingerprint.
func (s *Snapshot) Fingerprint() string {
	order := make(map[Kind]int, len(Kinds()))
	for i, k := range Kinds() {
		order[k] = i
	}

	nodes := make([]SnapshotNode, len(s.Nodes))
	copy(nodes, s.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return order[nodes[i].Kind] < order[nodes[j].Kind]
		}
		return nodes[i].Key.Index() < nodes[j].Key.Index()
	})

	h, _ := blake2b.New256(nil)
	for _, n := range nodes {
		fmt.Fprintf(h, "%s\x1f%s\x1f", n.Kind, n.Key.Index())
		h.Write(n.Attributes)

		children := make([]string, len(n.Children))
		for i, c := range n.Children {
			children[i] = string(c.Kind) + "\x1f" + c.Key.Index()
		}
		sort.Strings(children)
		for _, c := range children {
			fmt.Fprintf(h, "\x1e%s", c)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
