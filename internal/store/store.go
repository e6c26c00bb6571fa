// Package store holds the nodes produced by one load run, keyed by their
// natural identity, along with parent to child links.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"netsync/internal/domain"
)

// entry holds a node and the refs of its children in insertion order
type entry struct {
	node     domain.Node
	children []domain.Ref
	childSet map[string]struct{}
}

// Store is the in-memory node store for a single load run.
// It has a single writer and is not safe for concurrent mutation.
type Store struct {
	nodes map[domain.Kind]map[string]*entry
	order map[domain.Kind][]string
	log   *zap.Logger
}

// New creates an empty store
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		nodes: make(map[domain.Kind]map[string]*entry),
		order: make(map[domain.Kind][]string),
		log:   logger.Named("store"),
	}
	for _, k := range domain.Kinds() {
		s.nodes[k] = make(map[string]*entry)
	}
	return s
}

// Upsert returns the existing node with the same key, or validates and
// inserts n. The flag reports whether a new node was created.
func (s *Store) Upsert(n domain.Node) (domain.Node, bool, error) {
	bucket, err := s.bucket(n.Kind())
	if err != nil {
		return nil, false, err
	}

	idx := n.Key().Index()
	if existing, ok := bucket[idx]; ok {
		return existing.node, false, nil
	}

	if err := Validate(n); err != nil {
		return nil, false, err
	}

	bucket[idx] = &entry{node: n, childSet: make(map[string]struct{})}
	s.order[n.Kind()] = append(s.order[n.Kind()], idx)
	s.log.Debug("Node created", zap.String("kind", string(n.Kind())), zap.String("key", n.Key().String()))
	return n, true, nil
}

// Add inserts n and fails with ErrDuplicate if the key is taken
func (s *Store) Add(n domain.Node) error {
	_, created, err := s.Upsert(n)
	if err != nil {
		return err
	}
	if !created {
		return &StoreError{Op: "add", Ref: domain.RefOf(n), Cause: ErrDuplicate}
	}
	return nil
}

// Lookup returns the node of the given kind and key, or ErrNotFound
func (s *Store) Lookup(kind domain.Kind, key domain.Key) (domain.Node, error) {
	e, err := s.get(domain.Ref{Kind: kind, Key: key})
	if err != nil {
		return nil, err
	}
	return e.node, nil
}

// Has reports whether a node exists for ref
func (s *Store) Has(ref domain.Ref) bool {
	_, err := s.get(ref)
	return err == nil
}

// InsertChild records child under parent. Both nodes must exist;
// a missing parent yields ErrMissingParent. Repeated links are ignored.
func (s *Store) InsertChild(parent, child domain.Ref) error {
	p, err := s.get(parent)
	if err != nil {
		return &StoreError{Op: "insert child", Ref: parent, Cause: ErrMissingParent}
	}
	if _, err := s.get(child); err != nil {
		return &StoreError{Op: "insert child", Ref: child, Cause: ErrNotFound}
	}

	id := string(child.Kind) + "\x00" + child.Key.Index()
	if _, ok := p.childSet[id]; ok {
		return nil
	}
	p.childSet[id] = struct{}{}
	p.children = append(p.children, child)
	return nil
}

// Children returns the child refs of parent, filtered by kind when kind is non-empty
func (s *Store) Children(parent domain.Ref, kind domain.Kind) []domain.Ref {
	p, err := s.get(parent)
	if err != nil {
		return nil
	}
	result := make([]domain.Ref, 0, len(p.children))
	for _, c := range p.children {
		if kind == "" || c.Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// All returns every node of kind in insertion order
func (s *Store) All(kind domain.Kind) []domain.Node {
	bucket := s.nodes[kind]
	result := make([]domain.Node, 0, len(s.order[kind]))
	for _, idx := range s.order[kind] {
		result = append(result, bucket[idx].node)
	}
	return result
}

// Count returns the number of nodes of kind
func (s *Store) Count(kind domain.Kind) int {
	return len(s.order[kind])
}

// Snapshot serializes every node in kind then insertion order
func (s *Store) Snapshot(runID, namespace string) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot(runID, namespace)
	for _, kind := range domain.Kinds() {
		for _, idx := range s.order[kind] {
			e := s.nodes[kind][idx]
			children := make([]domain.Ref, len(e.children))
			copy(children, e.children)
			if err := snap.AddNode(e.node, children); err != nil {
				return nil, fmt.Errorf("failed to snapshot store: %w", err)
			}
		}
	}
	return snap, nil
}

func (s *Store) bucket(kind domain.Kind) (map[string]*entry, error) {
	bucket, ok := s.nodes[kind]
	if !ok {
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
	return bucket, nil
}

func (s *Store) get(ref domain.Ref) (*entry, error) {
	bucket, err := s.bucket(ref.Kind)
	if err != nil {
		return nil, err
	}
	e, ok := bucket[ref.Key.Index()]
	if !ok {
		return nil, &StoreError{Op: "lookup", Ref: ref, Cause: ErrNotFound}
	}
	return e, nil
}
