package domain

import "strings"

// Kind identifies the type of a graph node
type Kind string

const (
	KindArea           Kind = "area"
	KindBuilding       Kind = "building"
	KindFloor          Kind = "floor"
	KindDevice         Kind = "device"
	KindPort           Kind = "port"
	KindPrefix         Kind = "prefix"
	KindAddress        Kind = "ipaddress"
	KindAddressBinding Kind = "ip_on_intf"
)

// Kinds lists every node kind in load order
func Kinds() []Kind {
	return []Kind{
		KindArea,
		KindBuilding,
		KindFloor,
		KindDevice,
		KindPort,
		KindPrefix,
		KindAddress,
		KindAddressBinding,
	}
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Node is implemented by every graph entity. The unexported marker keeps the
// set of implementations closed to this package.
type Node interface {
	Kind() Kind
	Key() Key
	isNode()
}

// keySeparator joins key fields in their printable form
const keySeparator = "__"

// Key is the ordered composite identity of a node within its kind
type Key []string

// String renders the key with trailing empty fields dropped,
// e.g. a port without a MAC address prints as "device__port".
func (k Key) String() string {
	end := len(k)
	for end > 0 && k[end-1] == "" {
		end--
	}
	return strings.Join(k[:end], keySeparator)
}

// Index returns an unambiguous form of the key for use as a map key
func (k Key) Index() string {
	return strings.Join(k, "\x00")
}

// Equal reports whether both keys hold the same fields
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Ref addresses a node by kind and key
type Ref struct {
	Kind Kind `json:"kind" yaml:"kind"`
	Key  Key  `json:"key" yaml:"key"`
}

// RefOf returns the reference for a node
func RefOf(n Node) Ref {
	return Ref{Kind: n.Kind(), Key: n.Key()}
}

// String renders the reference as kind:key
func (r Ref) String() string {
	return string(r.Kind) + ":" + r.Key.String()
}
