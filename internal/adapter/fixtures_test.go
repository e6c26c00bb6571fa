package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"netsync/internal/config"
	"netsync/internal/source"
)

func building(id, name, parentID, hierarchy string) source.Location {
	return source.Location{
		ID:            id,
		Name:          name,
		ParentID:      parentID,
		SiteHierarchy: hierarchy,
		AdditionalInfo: []source.AdditionalInfo{{
			NameSpace:  "Location",
			Attributes: map[string]string{"type": "building", "address": name + " Street"},
		}},
	}
}

func floor(id, name, parentID, hierarchy string) source.Location {
	return source.Location{
		ID:            id,
		Name:          name,
		ParentID:      parentID,
		SiteHierarchy: hierarchy,
		AdditionalInfo: []source.AdditionalInfo{{
			NameSpace:  "Location",
			Attributes: map[string]string{"type": "floor"},
		}},
	}
}

func area(id, name, parentID, hierarchy string) source.Location {
	return source.Location{ID: id, Name: name, ParentID: parentID, SiteHierarchy: hierarchy}
}

func portAddress(host, mask string) source.PortAddress {
	var a source.PortAddress
	a.Address.IPAddress.Address = host
	a.Address.IPMask.Address = mask
	return a
}

// asiaLocations is the Asia / Japan / Tokyo / China / hkg tree under Global,
// listed child first to exercise ordering.
func asiaLocations() []source.Location {
	return []source.Location{
		building("h", "hkg", "c", "g/a/c/h"),
		area("j", "Japan", "a", "g/a/j"),
		area("g", "Global", "", "g"),
		building("t", "Tokyo", "j", "g/a/j/t"),
		area("c", "China", "a", "g/a/c"),
		area("a", "Asia", "g", "g/a"),
	}
}

// asiaDump places two leaf switches in hkg, the first with two ports
func asiaDump() *source.Dump {
	return &source.Dump{
		Locations: asiaLocations(),
		Devices: []source.Device{
			{
				ID:                  "d1",
				Hostname:            "hkg-leaf-01",
				SoftwareType:        "NX-OS",
				Type:                "Cisco Nexus 93180YC-EX Switch",
				PlatformID:          "N9K-C93180YC-EX",
				SerialNumber:        "FDO1111",
				SoftwareVersion:     "9.3(8)",
				ManagementIPAddress: "10.1.1.1",
				ReachabilityStatus:  "Reachable",
			},
			{
				ID:                  "d2",
				Hostname:            "hkg-leaf-02",
				SoftwareType:        "NX-OS",
				PlatformID:          "N9K-C93180YC-EX",
				ManagementIPAddress: "10.1.1.2",
				ReachabilityStatus:  "Unreachable",
			},
		},
		Details: map[string]source.DeviceDetail{
			"d1": {SiteHierarchyGraphID: "/g/a/c/h/"},
			"d2": {SiteHierarchyGraphID: "/g/a/c/h/"},
		},
		Ports: map[string][]source.Port{
			"d1": {
				{
					PortName:    "Ethernet1",
					AdminStatus: "UP",
					Status:      "up",
					PortMode:    "trunk",
					Speed:       "10000000",
					MTU:         "9216",
					Addresses:   []source.PortAddress{portAddress("10.1.1.1", "255.255.255.0")},
				},
				{
					PortName:    "Ethernet2",
					AdminStatus: "DOWN",
					Status:      "down",
					PortMode:    "access",
				},
			},
		},
	}
}

func defaultLoadConfig() *config.LoadConfig {
	cfg := config.DefaultConfig().Load
	return &cfg
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func runLoad(t *testing.T, dump *source.Dump, cfg *config.LoadConfig) *Result {
	t.Helper()
	a, err := New(source.NewFileClient(dump), cfg, zap.NewNop())
	require.NoError(t, err)
	result, err := a.Load(context.Background())
	require.NoError(t, err)
	return result
}

// stubClient wraps a FileClient and injects fetch failures
type stubClient struct {
	*source.FileClient
	locationsErr error
	devicesErr   error
	detailErr    error
	portsErr     error
}

var errUnavailable = errors.New("controller unavailable")

func (c *stubClient) GetLocations(ctx context.Context) ([]source.Location, error) {
	if c.locationsErr != nil {
		return nil, c.locationsErr
	}
	return c.FileClient.GetLocations(ctx)
}

func (c *stubClient) GetDevices(ctx context.Context) ([]source.Device, error) {
	if c.devicesErr != nil {
		return nil, c.devicesErr
	}
	return c.FileClient.GetDevices(ctx)
}

func (c *stubClient) GetDeviceDetail(ctx context.Context, id string) (*source.DeviceDetail, error) {
	if c.detailErr != nil {
		return nil, c.detailErr
	}
	return c.FileClient.GetDeviceDetail(ctx, id)
}

func (c *stubClient) GetPortInfo(ctx context.Context, id string) ([]source.Port, error) {
	if c.portsErr != nil {
		return nil, c.portsErr
	}
	return c.FileClient.GetPortInfo(ctx, id)
}
