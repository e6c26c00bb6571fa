package domain

// Device status values
const (
	DeviceStatusActive  = "Active"
	DeviceStatusOffline = "Offline"
)

// Device is a managed network device placed in a building
type Device struct {
	Name            string `json:"name" yaml:"name" validate:"required,max=64"`
	Status          string `json:"status" yaml:"status" validate:"oneof=Active Offline"`
	Role            string `json:"role" yaml:"role" validate:"required,max=100"`
	Vendor          string `json:"vendor" yaml:"vendor" validate:"required,max=100"`
	Model           string `json:"model" yaml:"model" validate:"required,max=100"`
	Platform        string `json:"platform" yaml:"platform" validate:"required,max=100"`
	Site            string `json:"site" yaml:"site" validate:"required,max=100"`
	Floor           string `json:"floor,omitempty" yaml:"floor,omitempty" validate:"max=100"`
	Serial          string `json:"serial,omitempty" yaml:"serial,omitempty" validate:"max=255"`
	Version         string `json:"version,omitempty" yaml:"version,omitempty" validate:"max=100"`
	Tenant          string `json:"tenant,omitempty" yaml:"tenant,omitempty"`
	ControllerGroup string `json:"controller_group,omitempty" yaml:"controller_group,omitempty"`
}

func (Device) Kind() Kind { return KindDevice }
func (d Device) Key() Key { return Key{d.Name} }
func (Device) isNode()    {}

// Port modes
const (
	PortModeAccess = "access"
	PortModeTagged = "tagged"
)

// DefaultMTU is applied to ports that report no MTU
const DefaultMTU = 1500

// Port is an interface on a device. MACAddress is upper-case or empty.
type Port struct {
	Device      string `json:"device" yaml:"device" validate:"required,max=64"`
	Name        string `json:"name" yaml:"name" validate:"required,max=64"`
	MACAddress  string `json:"mac_address,omitempty" yaml:"mac_address,omitempty" validate:"omitempty,mac"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=200"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Type        string `json:"type" yaml:"type" validate:"required"`
	Mode        string `json:"mode" yaml:"mode" validate:"oneof=access tagged"`
	MTU         int    `json:"mtu" yaml:"mtu" validate:"min=1,max=65536"`
	Status      string `json:"status" yaml:"status" validate:"required"`
}

func (Port) Kind() Kind { return KindPort }
func (p Port) Key() Key { return Key{p.Device, p.Name, p.MACAddress} }
func (Port) isNode()    {}
