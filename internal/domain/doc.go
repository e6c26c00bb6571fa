// Package domain defines the node types of the reconciled inventory graph.
//
// The graph is produced by a single load run against a network controller and
// handed to a diff engine afterwards. Every node is identified by a composite
// natural key rather than by the controller's internal ids.
//
// # Node Kinds
//
// Kind is a closed set: Area, Building, Floor, Device, Port, Prefix, Address
// and AddressBinding. Each kind has a concrete value type implementing the
// sealed Node interface, so callers switch on the concrete type instead of
// inspecting a runtime "kind" field.
//
// # Identity
//
// Key is the ordered tuple of semantic fields that identifies a node within its
// kind. Ref pairs a Kind with a Key and is how parents record their children.
//
// # Snapshot
//
// Snapshot is the serializable form of a finished graph. Its Fingerprint is
// stable across runs with identical input, which is how repeated loads are
// checked for idempotence.
//
// # Design Principles
//
// - Nodes are values and are never mutated after insertion
// - Field constraints live in validate struct tags
// - No storage or transport dependencies
package domain
