package domain

// CatchAllPrefix covers every IPv4 address in a namespace
const CatchAllPrefix = "0.0.0.0/0"

// DefaultNamespace scopes prefixes and addresses when no tenant is configured
const DefaultNamespace = "Global"

// Prefix is a network in a namespace
type Prefix struct {
	Network   string `json:"prefix" yaml:"prefix" validate:"required,cidr"`
	Namespace string `json:"namespace" yaml:"namespace" validate:"required"`
	Tenant    string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
}

func (Prefix) Kind() Kind { return KindPrefix }
func (p Prefix) Key() Key { return Key{p.Network, p.Namespace} }
func (Prefix) isNode()    {}

// Address is a host address in a namespace
type Address struct {
	Host       string `json:"host" yaml:"host" validate:"required,ip"`
	MaskLength int    `json:"mask_length" yaml:"mask_length" validate:"min=0,max=128"`
	Namespace  string `json:"namespace" yaml:"namespace" validate:"required"`
	Tenant     string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
}

func (Address) Kind() Kind { return KindAddress }
func (a Address) Key() Key { return Key{a.Host, a.Namespace} }
func (Address) isNode()    {}

// AddressBinding assigns an address to a port on a device
type AddressBinding struct {
	Host    string `json:"host" yaml:"host" validate:"required,ip"`
	Prefix  string `json:"prefix" yaml:"prefix" validate:"required,cidr"`
	Device  string `json:"device" yaml:"device" validate:"required"`
	Port    string `json:"port" yaml:"port" validate:"required"`
	Primary bool   `json:"primary" yaml:"primary"`
}

func (AddressBinding) Kind() Kind { return KindAddressBinding }
func (b AddressBinding) Key() Key { return Key{b.Host, b.Prefix, b.Device, b.Port} }
func (AddressBinding) isNode()    {}
