package source

import (
	"strconv"
	"strings"
)

// locationNamespace is the additional-info namespace holding site attributes
const locationNamespace = "Location"

// Port status values
const (
	PortStatusActive  = "Active"
	PortStatusPlanned = "Planned"
	PortStatusFailed  = "Failed"
)

// Location types
const (
	LocationTypeArea     = "area"
	LocationTypeBuilding = "building"
	LocationTypeFloor    = "floor"
)

// LocationType classifies a location by its additional-info entries. Any
// entry typed building or floor decides; everything else is an area.
func LocationType(info []AdditionalInfo) string {
	for _, i := range info {
		switch t := strings.ToLower(i.Attributes["type"]); t {
		case LocationTypeBuilding, LocationTypeFloor:
			return t
		}
	}
	return LocationTypeArea
}

// FindAddressAndType returns the postal address and site type from the
// Location namespace.
func FindAddressAndType(info []AdditionalInfo) (address, locType string) {
	for _, i := range info {
		if i.NameSpace != locationNamespace {
			continue
		}
		return i.Attributes["address"], i.Attributes["type"]
	}
	return "", ""
}

// FindLatitudeLongitude returns the coordinates from the Location namespace,
// latitude cut to 9 characters and longitude to 7, trailing zeros trimmed.
func FindLatitudeLongitude(info []AdditionalInfo) (latitude, longitude string) {
	for _, i := range info {
		if i.NameSpace != locationNamespace {
			continue
		}
		return trimCoordinate(i.Attributes["latitude"], 9), trimCoordinate(i.Attributes["longitude"], 7)
	}
	return "", ""
}

func trimCoordinate(value string, width int) string {
	if len(value) > width {
		value = value[:width]
	}
	if strings.Contains(value, ".") {
		value = strings.TrimRight(value, "0")
		value = strings.TrimSuffix(value, ".")
	}
	return value
}

// ModelName collapses a comma separated platform id list such as
// "C9300-48U, C9300-48U" into its distinct models.
func ModelName(platformID string) string {
	seen := make(map[string]struct{})
	var models []string
	for _, m := range strings.Split(platformID, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		models = append(models, m)
	}
	return strings.Join(models, ", ")
}

// speedTypes maps a port speed in kbps to an interface type
var speedTypes = map[int]string{
	100000:    "100base-tx",
	1000000:   "1000base-t",
	10000000:  "10gbase-x-sfpp",
	25000000:  "25gbase-x-sfp28",
	40000000:  "40gbase-x-qsfpp",
	100000000: "100gbase-x-qsfp28",
}

// PortType derives the interface type from the port's type and speed
func PortType(p Port) string {
	name := strings.ToLower(p.PortName)
	switch {
	case p.InterfaceType == "Virtual", p.PortType == "Ethernet SVI":
		if strings.HasPrefix(name, "port-channel") {
			return "lag"
		}
		return "virtual"
	case strings.HasPrefix(name, "port-channel"):
		return "lag"
	}

	speed, err := strconv.Atoi(strings.TrimSpace(p.Speed))
	if err != nil {
		return "other"
	}
	if t, ok := speedTypes[speed]; ok {
		return t
	}
	return "other"
}

// PortStatus maps administrative and operational state to a port status
func PortStatus(p Port) string {
	switch {
	case strings.EqualFold(p.AdminStatus, "DOWN"):
		return PortStatusPlanned
	case strings.EqualFold(p.Status, "down"):
		return PortStatusFailed
	default:
		return PortStatusActive
	}
}

// MTU parses the reported MTU, returning fallback when absent or unreadable
func MTU(p Port, fallback int) int {
	mtu, err := strconv.Atoi(strings.TrimSpace(p.MTU))
	if err != nil || mtu == 0 {
		return fallback
	}
	return mtu
}
