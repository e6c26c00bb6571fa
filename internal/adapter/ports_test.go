package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netsync/internal/domain"
	"netsync/internal/source"
	"netsync/internal/store"
)

func testDevice() domain.Device {
	return domain.Device{
		Name:     "sw1",
		Status:   domain.DeviceStatusActive,
		Role:     "Leaf",
		Vendor:   "Cisco",
		Model:    "C9300-48U",
		Platform: "cisco_ios",
		Site:     "hkg",
	}
}

func loadPorts(t *testing.T, ports []source.Port, mgmtAddr string, logger *zap.Logger) *store.Store {
	t.Helper()
	st := store.New(nil)
	device := testDevice()
	_, _, err := st.Upsert(device)
	require.NoError(t, err)

	client := source.NewFileClient(&source.Dump{Ports: map[string][]source.Port{"d1": ports}})
	addresses := NewAddressLoader(st, domain.DefaultNamespace, "", true, logger)
	loader := NewPortLoader(st, client, addresses, true, logger)
	require.NoError(t, loader.Load(context.Background(), "d1", device, mgmtAddr))
	return st
}

func TestPortLoaderAttributes(t *testing.T) {
	st := loadPorts(t, []source.Port{
		{
			PortName:    "TenGigabitEthernet1/0/1",
			MACAddress:  "aa:bb:cc:00:11:22",
			Description: "uplink",
			AdminStatus: "UP",
			Status:      "up",
			PortMode:    "trunk",
			Speed:       "10000000",
			MTU:         "9100",
		},
		{
			PortName:    "Vlan10",
			AdminStatus: "UP",
			Status:      "down",
			PortMode:    "routed",
			PortType:    "Ethernet SVI",
		},
		{
			PortName:    "Port-channel1",
			AdminStatus: "DOWN",
			Status:      "down",
		},
	}, "", nil)

	ports := st.All(domain.KindPort)
	require.Len(t, ports, 3)

	assert.Equal(t, domain.Port{
		Device:      "sw1",
		Name:        "TenGigabitEthernet1/0/1",
		MACAddress:  "AA:BB:CC:00:11:22",
		Description: "uplink",
		Enabled:     true,
		Type:        "10gbase-x-sfpp",
		Mode:        domain.PortModeTagged,
		MTU:         9100,
		Status:      source.PortStatusActive,
	}, ports[0])

	svi := ports[1].(domain.Port)
	assert.Equal(t, "virtual", svi.Type)
	assert.Equal(t, domain.PortModeAccess, svi.Mode)
	assert.Equal(t, domain.DefaultMTU, svi.MTU)
	assert.Equal(t, source.PortStatusFailed, svi.Status)

	lag := ports[2].(domain.Port)
	assert.Equal(t, "lag", lag.Type)
	assert.False(t, lag.Enabled)
	assert.Equal(t, source.PortStatusPlanned, lag.Status)

	children := st.Children(domain.RefOf(testDevice()), domain.KindPort)
	assert.Len(t, children, 3)
}

func TestPortLoaderDedupe(t *testing.T) {
	logger, logs := observedLogger()
	st := loadPorts(t, []source.Port{
		{PortName: "Gi1/0/1", MACAddress: "aa:bb:cc:00:11:22"},
		{PortName: "Gi1/0/1", MACAddress: "AA:BB:CC:00:11:22"},
		{PortName: "Gi1/0/1", MACAddress: "aa:bb:cc:00:11:33"},
	}, "", logger)

	assert.Equal(t, 2, st.Count(domain.KindPort), "same name with another MAC is a distinct port")
	assert.Equal(t, 1, logs.FilterMessage("Duplicate port attempting to be loaded").Len())
}

func TestPortLoaderInvalidPortSkipped(t *testing.T) {
	logger, logs := observedLogger()
	st := loadPorts(t, []source.Port{
		{PortName: "Gi1/0/1", MACAddress: "not-a-mac"},
		{PortName: "Gi1/0/2"},
	}, "", logger)

	ports := st.All(domain.KindPort)
	require.Len(t, ports, 1)
	assert.Equal(t, "Gi1/0/2", ports[0].(domain.Port).Name)
	assert.Equal(t, 1, logs.FilterMessage("Unable to load port").Len())
}

func TestPortLoaderAddresses(t *testing.T) {
	logger, logs := observedLogger()
	st := loadPorts(t, []source.Port{
		{
			PortName: "Vlan100",
			Addresses: []source.PortAddress{
				portAddress("10.1.1.5", "255.255.255.0"),
				portAddress("10.1.2.5", "255.255.255.128"),
				portAddress("bogus", "255.255.255.0"),
				portAddress("10.1.3.5", "255.0.255.0"),
			},
		},
		{
			PortName:  "Loopback0",
			Addresses: []source.PortAddress{portAddress("10.255.0.1", "32")},
		},
	}, "10.1.1.5", logger)

	assert.Equal(t, 3, st.Count(domain.KindPrefix))
	assert.Equal(t, 3, st.Count(domain.KindAddress))
	assert.Equal(t, 2, logs.FilterMessage("Skipping malformed port address").Len())

	_, err := st.Lookup(domain.KindPrefix, domain.Key{"10.1.2.0/25", domain.DefaultNamespace})
	require.NoError(t, err)

	node, err := st.Lookup(domain.KindAddress, domain.Key{"10.1.1.5", domain.DefaultNamespace})
	require.NoError(t, err)
	assert.Equal(t, 24, node.(domain.Address).MaskLength)

	var primaries []domain.AddressBinding
	for _, n := range st.All(domain.KindAddressBinding) {
		if b := n.(domain.AddressBinding); b.Primary {
			primaries = append(primaries, b)
		}
	}
	require.Len(t, primaries, 1)
	assert.Equal(t, domain.AddressBinding{
		Host:    "10.1.1.5",
		Prefix:  "10.1.1.0/24",
		Device:  "sw1",
		Port:    "Vlan100",
		Primary: true,
	}, primaries[0])
}

func TestPortLoaderFetchError(t *testing.T) {
	logger, logs := observedLogger()
	st := store.New(nil)
	device := testDevice()
	_, _, err := st.Upsert(device)
	require.NoError(t, err)

	client := &stubClient{FileClient: source.NewFileClient(nil), portsErr: errUnavailable}
	loader := NewPortLoader(st, client, NewAddressLoader(st, domain.DefaultNamespace, "", false, nil), false, logger)

	require.NoError(t, loader.Load(context.Background(), "d1", device, ""))
	assert.Equal(t, 1, logs.FilterMessage("Unable to fetch ports").Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	healthy := &stubClient{FileClient: source.NewFileClient(nil)}
	loader = NewPortLoader(st, healthy, NewAddressLoader(st, domain.DefaultNamespace, "", false, nil), false, logger)
	assert.ErrorIs(t, loader.Load(ctx, "d1", device, ""), context.Canceled)
}
