package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsync/internal/adapter"
	"netsync/internal/domain"
	"netsync/internal/source"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	snap := domain.NewSnapshot("run-1", domain.DefaultNamespace)

	building := domain.Building{
		Name:      "hkg",
		Area:      "China",
		Latitude:  "22.278315",
		Longitude: "114.174",
	}
	device := domain.Device{
		Name:     "hkg-leaf-01",
		Status:   domain.DeviceStatusActive,
		Role:     "Leaf",
		Vendor:   "Cisco",
		Model:    "N9K-C93180YC-EX",
		Platform: "cisco_nxos",
		Site:     "hkg",
		Version:  "9.3(8)",
	}
	port := domain.Port{
		Device:  "hkg-leaf-01",
		Name:    "Ethernet1",
		Enabled: true,
		Type:    "10gbase-x-sfpp",
		Mode:    domain.PortModeTagged,
		MTU:     9216,
		Status:  "Active",
	}

	require.NoError(t, snap.AddNode(domain.Area{Name: "China"}, []domain.Ref{domain.RefOf(building)}))
	require.NoError(t, snap.AddNode(building, []domain.Ref{domain.RefOf(device)}))
	require.NoError(t, snap.AddNode(device, []domain.Ref{domain.RefOf(port)}))
	require.NoError(t, snap.AddNode(port, nil))
	require.NoError(t, snap.AddNode(domain.Prefix{Network: "10.1.1.0/24", Namespace: domain.DefaultNamespace}, nil))
	require.NoError(t, snap.AddNode(domain.Address{Host: "10.1.1.1", MaskLength: 24, Namespace: domain.DefaultNamespace}, nil))
	require.NoError(t, snap.AddNode(domain.AddressBinding{
		Host: "10.1.1.1", Prefix: "10.1.1.0/24", Device: "hkg-leaf-01", Port: "Ethernet1", Primary: true,
	}, nil))

	return &Document{
		Snapshot: snap,
		Quarantine: []adapter.QuarantineRecord{
			{
				Reason:  adapter.ReasonMissingHostname,
				Message: adapter.ReasonMissingHostname,
				Device:  source.Device{ID: "d9", ManagementIPAddress: "10.9.9.9"},
			},
			{
				Reason:   adapter.ReasonMissingBuilding,
				Message:  adapter.ReasonMissingBuilding,
				Device:   source.Device{ID: "d8", Hostname: "lost-01"},
				Detail:   &source.DeviceDetail{SiteHierarchyGraphID: "/g/a/"},
				Location: &adapter.SitePlacement{Areas: []string{"Asia"}},
			},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected string
		wantErr  bool
	}{
		{format: "json", expected: "json"},
		{format: "", expected: "json"},
		{format: "yaml", expected: "yaml"},
		{format: "yml", expected: "yaml"},
		{format: "ansible", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.Format())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			c, err := ForFormat(format)
			require.NoError(t, err)

			doc := testDocument(t)
			var buf bytes.Buffer
			require.NoError(t, c.Export(doc, &buf))

			got, err := c.Parse(&buf)
			require.NoError(t, err)

			assert.Equal(t, doc.Snapshot.RunID, got.Snapshot.RunID)
			assert.Equal(t, doc.Snapshot.Namespace, got.Snapshot.Namespace)
			assert.Equal(t, doc.Snapshot.Fingerprint(), got.Snapshot.Fingerprint())
			require.Len(t, got.Snapshot.Nodes, len(doc.Snapshot.Nodes))
			for i, n := range doc.Snapshot.Nodes {
				assert.Equal(t, n.ID, got.Snapshot.Nodes[i].ID)
				assert.JSONEq(t, string(n.Attributes), string(got.Snapshot.Nodes[i].Attributes))
			}
			assert.Equal(t, doc.Quarantine, got.Quarantine)
		})
	}
}

func TestYAMLExportShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(testDocument(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "run_id: run-1")
	assert.Contains(t, out, "kind: building")
	assert.Contains(t, out, "latitude: \"22.278315\"")
	assert.Contains(t, out, "mtu: 9216")
	assert.Contains(t, out, "reason: missing hostname")
}

func TestYAMLExportRequiresSnapshot(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewYAMLCodec().Export(&Document{}, &buf))
}

func TestJSONParseErrors(t *testing.T) {
	_, err := NewJSONCodec().Parse(bytes.NewBufferString("not json"))
	assert.Error(t, err)

	_, err = NewJSONCodec().Parse(bytes.NewBufferString(`{"quarantine": []}`))
	assert.Error(t, err)
}

func TestYAMLParseUnknownKind(t *testing.T) {
	input := "run_id: r\nnamespace: Global\nnodes:\n  - kind: rack\n    id: r1\n    attributes: {name: r1}\n"
	_, err := NewYAMLCodec().Parse(bytes.NewBufferString(input))
	assert.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "snappy"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snapshot.json")
			doc := testDocument(t)
			c := NewJSONCodec()

			require.NoError(t, WriteFile(path, c, doc, compress))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if compress {
				assert.NotEqual(t, byte('{'), data[0])
			} else {
				assert.Equal(t, byte('{'), data[0])
			}

			got, err := ReadFile(path, c, compress)
			require.NoError(t, err)
			assert.Equal(t, doc.Snapshot.Fingerprint(), got.Snapshot.Fingerprint())
			assert.Len(t, got.Quarantine, 2)
		})
	}
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.sz")
	require.NoError(t, os.WriteFile(path, []byte("definitely not snappy"), 0644))

	_, err := ReadFile(path, NewJSONCodec(), true)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"), NewJSONCodec(), false)
	assert.Error(t, err)
}
