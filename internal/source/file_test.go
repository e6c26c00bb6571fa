package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `
locations:
  - id: "1"
    name: Asia
    siteHierarchy: "1"
  - id: "2"
    name: hkg
    parentId: "1"
    siteHierarchy: "1/2"
    additionalInfo:
      - nameSpace: Location
        attributes:
          type: building
          address: 1 Harbour Rd
devices:
  - id: d1
    hostname: hkg-leaf-01
    softwareType: NX-OS
details:
  d1:
    siteHierarchyGraphId: /1/2/
ports:
  d1:
    - portName: Ethernet1
      adminStatus: UP
      mtu: "9100"
      addresses:
        - address:
            ipAddress:
              address: 10.0.0.1
            ipMask:
              address: 255.255.255.0
`

func TestParseDump(t *testing.T) {
	dump, err := ParseDump([]byte(sampleDump))
	require.NoError(t, err)

	require.Len(t, dump.Locations, 2)
	assert.Equal(t, "1", dump.Locations[1].ParentID)
	assert.Equal(t, "building", LocationType(dump.Locations[1].AdditionalInfo))
	require.Len(t, dump.Devices, 1)
	assert.Equal(t, "NX-OS", dump.Devices[0].SoftwareType)

	ports := dump.Ports["d1"]
	require.Len(t, ports, 1)
	host, mask := ports[0].Addresses[0].Host()
	assert.Equal(t, "10.0.0.1", host)
	assert.Equal(t, "255.255.255.0", mask)
}

func TestParseDumpJSON(t *testing.T) {
	dump, err := ParseDump([]byte(`{"locations":[{"id":"1","name":"Global"}],"devices":[]}`))
	require.NoError(t, err)
	require.Len(t, dump.Locations, 1)
	assert.NotNil(t, dump.Details)
	assert.NotNil(t, dump.Ports)
}

func TestParseDumpInvalid(t *testing.T) {
	_, err := ParseDump([]byte("locations: [unterminated"))
	assert.Error(t, err)
}

func TestFileClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o644))

	client, err := OpenFileClient(path)
	require.NoError(t, err)
	ctx := context.Background()

	locations, err := client.GetLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 2)

	detail, err := client.GetDeviceDetail(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "/1/2/", detail.SiteHierarchyGraphID)

	detail, err = client.GetDeviceDetail(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, detail)

	ports, err := client.GetPortInfo(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, ports, 1)

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.GetDevices(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenFileClient(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestFileClientReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o644))

	client, err := OpenFileClient(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("devices:\n  - id: d1\n  - id: d2\n"), 0o644))
	require.NoError(t, client.Reload())

	devices, err := client.GetDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
	locations, err := client.GetLocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, locations)

	t.Run("broken file keeps previous dump", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("devices: [unterminated"), 0o644))
		assert.Error(t, client.Reload())

		devices, err := client.GetDevices(ctx)
		require.NoError(t, err)
		assert.Len(t, devices, 2)
	})

	t.Run("not opened from a file", func(t *testing.T) {
		assert.Error(t, NewFileClient(nil).Reload())
	})
}
