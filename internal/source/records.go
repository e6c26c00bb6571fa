package source

// Location is a site record: an area, building or floor
type Location struct {
	ID             string           `json:"id" yaml:"id"`
	Name           string           `json:"name" yaml:"name"`
	ParentID       string           `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	SiteHierarchy  string           `json:"siteHierarchy,omitempty" yaml:"siteHierarchy,omitempty"`
	AdditionalInfo []AdditionalInfo `json:"additionalInfo,omitempty" yaml:"additionalInfo,omitempty"`
}

// AdditionalInfo is a namespaced attribute bag attached to a location
type AdditionalInfo struct {
	NameSpace  string            `json:"nameSpace" yaml:"nameSpace"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// Device is a managed device record from the inventory listing
type Device struct {
	ID                  string `json:"id" yaml:"id"`
	Hostname            string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Role                string `json:"role,omitempty" yaml:"role,omitempty"`
	SoftwareType        string `json:"softwareType,omitempty" yaml:"softwareType,omitempty"`
	SoftwareVersion     string `json:"softwareVersion,omitempty" yaml:"softwareVersion,omitempty"`
	Type                string `json:"type,omitempty" yaml:"type,omitempty"`
	Family              string `json:"family,omitempty" yaml:"family,omitempty"`
	PlatformID          string `json:"platformId,omitempty" yaml:"platformId,omitempty"`
	SerialNumber        string `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	ManagementIPAddress string `json:"managementIpAddress,omitempty" yaml:"managementIpAddress,omitempty"`
	ReachabilityStatus  string `json:"reachabilityStatus,omitempty" yaml:"reachabilityStatus,omitempty"`
	ErrorDescription    string `json:"errorDescription,omitempty" yaml:"errorDescription,omitempty"`
}

// DeviceDetail carries the site placement of a device
type DeviceDetail struct {
	SiteHierarchyGraphID string `json:"siteHierarchyGraphId,omitempty" yaml:"siteHierarchyGraphId,omitempty"`
	Location             string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Port is an interface record of a device
type Port struct {
	PortName      string        `json:"portName" yaml:"portName"`
	MACAddress    string        `json:"macAddress,omitempty" yaml:"macAddress,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	AdminStatus   string        `json:"adminStatus,omitempty" yaml:"adminStatus,omitempty"`
	Status        string        `json:"status,omitempty" yaml:"status,omitempty"`
	PortMode      string        `json:"portMode,omitempty" yaml:"portMode,omitempty"`
	MTU           string        `json:"mtu,omitempty" yaml:"mtu,omitempty"`
	InterfaceType string        `json:"interfaceType,omitempty" yaml:"interfaceType,omitempty"`
	PortType      string        `json:"portType,omitempty" yaml:"portType,omitempty"`
	Speed         string        `json:"speed,omitempty" yaml:"speed,omitempty"`
	Addresses     []PortAddress `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// PortAddress is an address configured on a port
type PortAddress struct {
	Address struct {
		IPAddress struct {
			Address string `json:"address" yaml:"address"`
		} `json:"ipAddress" yaml:"ipAddress"`
		IPMask struct {
			Address string `json:"address" yaml:"address"`
		} `json:"ipMask" yaml:"ipMask"`
	} `json:"address" yaml:"address"`
}

// Host returns the address and mask strings of the record
func (a PortAddress) Host() (string, string) {
	return a.Address.IPAddress.Address, a.Address.IPMask.Address
}
