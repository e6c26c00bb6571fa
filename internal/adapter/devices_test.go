package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsync/internal/config"
	"netsync/internal/domain"
	"netsync/internal/source"
)

func TestDeviceQuarantine(t *testing.T) {
	longName := strings.Repeat("x", 65)

	tests := []struct {
		name        string
		device      source.Device
		detail      *source.DeviceDetail
		wantReason  string
		wantMessage string
		wantPlaced  bool
	}{
		{
			name:       "missing hostname",
			device:     source.Device{ID: "d9"},
			detail:     &source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/"},
			wantReason: ReasonMissingHostname,
		},
		{
			name:       "no site assignment",
			device:     source.Device{ID: "d9", Hostname: "lost-01"},
			wantReason: ReasonMissingBuilding,
			wantPlaced: true,
		},
		{
			name:       "area only",
			device:     source.Device{ID: "d9", Hostname: "lost-01"},
			detail:     &source.DeviceDetail{SiteHierarchyGraphID: "/g/a/"},
			wantReason: ReasonMissingBuilding,
			wantPlaced: true,
		},
		{
			name:       "duplicate hostname",
			device:     source.Device{ID: "d9", Hostname: "hkg-leaf-01"},
			detail:     &source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/"},
			wantReason: ReasonDuplicate,
			wantPlaced: true,
		},
		{
			name:        "failed validation",
			device:      source.Device{ID: "d9", Hostname: longName},
			detail:      &source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/"},
			wantReason:  ReasonValidation,
			wantMessage: "failed validation: Name: must not exceed 64",
			wantPlaced:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dump := asiaDump()
			dump.Devices = append(dump.Devices, tt.device)
			if tt.detail != nil {
				dump.Details["d9"] = *tt.detail
			}

			result := runLoad(t, dump, defaultLoadConfig())

			records := result.Quarantine.Records()
			require.Len(t, records, 1)
			rec := records[0]
			assert.Equal(t, tt.wantReason, rec.Reason)
			want := tt.wantMessage
			if want == "" {
				want = tt.wantReason
			}
			assert.Equal(t, want, rec.Message)
			assert.Equal(t, tt.device, rec.Device)
			assert.Equal(t, tt.wantPlaced, rec.Location != nil)

			assert.Equal(t, Stats{Input: 3, Loaded: 2, Quarantined: 1}, result.Stats)
			assert.Equal(t, 2, result.Store.Count(domain.KindDevice))
		})
	}
}

func TestDeviceDetailFailureQuarantines(t *testing.T) {
	logger, logs := observedLogger()
	client := &stubClient{FileClient: source.NewFileClient(asiaDump()), detailErr: errUnavailable}
	a, err := New(client, defaultLoadConfig(), logger)
	require.NoError(t, err)

	result, err := a.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Quarantine.ByReason()[ReasonMissingBuilding])
	assert.Zero(t, result.Store.Count(domain.KindDevice))
	assert.Equal(t, 2, logs.FilterMessage("Unable to fetch device detail").Len())
}

func TestDeviceUnassignedSite(t *testing.T) {
	dump := asiaDump()
	dump.Locations = append(dump.Locations, building("u", "Unassigned", "a", "g/a/u"))
	dump.Details["d1"] = source.DeviceDetail{SiteHierarchyGraphID: "/g/a/u/"}

	result := runLoad(t, dump, defaultLoadConfig())

	records := result.Quarantine.Records()
	require.Len(t, records, 1)
	assert.Equal(t, ReasonMissingBuilding, records[0].Reason)
	assert.Equal(t, "Unassigned", records[0].Location.Building)
}

func TestDeviceMeraki(t *testing.T) {
	meraki := source.Device{
		ID:       "m1",
		Hostname: "hkg-ap-01",
		Family:   "Meraki Access Points",
		Type:     "Cisco Meraki MR46",
	}

	t.Run("excluded by default", func(t *testing.T) {
		dump := asiaDump()
		dump.Devices = append(dump.Devices, meraki)
		dump.Details["m1"] = source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/"}

		result := runLoad(t, dump, defaultLoadConfig())
		assert.Equal(t, Stats{Input: 3, Loaded: 2, Excluded: 1}, result.Stats)
		assert.Zero(t, result.Quarantine.Len())
	})

	t.Run("imported when enabled", func(t *testing.T) {
		dump := asiaDump()
		dump.Devices = append(dump.Devices, meraki)
		dump.Details["m1"] = source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/"}
		cfg := defaultLoadConfig()
		cfg.ImportMeraki = true

		result := runLoad(t, dump, cfg)
		assert.Equal(t, Stats{Input: 3, Loaded: 3}, result.Stats)

		node, err := result.Store.Lookup(domain.KindDevice, domain.Key{"hkg-ap-01"})
		require.NoError(t, err)
		assert.Equal(t, "cisco_meraki", node.(domain.Device).Platform)
	})

	t.Run("error description marks meraki", func(t *testing.T) {
		dump := asiaDump()
		dump.Devices = append(dump.Devices, source.Device{ID: "m2", ErrorDescription: "Meraki device not managed"})

		result := runLoad(t, dump, defaultLoadConfig())
		assert.Equal(t, 1, result.Stats.Excluded)
		assert.Zero(t, result.Quarantine.Len(), "exclusion comes before the hostname check")
	})
}

func TestDeviceAttributes(t *testing.T) {
	cfg := defaultLoadConfig()
	cfg.Tenant = "acme"
	cfg.ControllerGroup = "dnac-prod"
	cfg.HostnameMap = []config.RoleRule{
		{Pattern: "^hkg-leaf-02$", Role: "Access"},
		{Pattern: "leaf", Role: "Leaf"},
	}
	dump := asiaDump()
	dump.Locations = append(dump.Locations, floor("f1", "1", "h", "g/a/c/h/f1"))
	dump.Details["d1"] = source.DeviceDetail{SiteHierarchyGraphID: "/g/a/c/h/f1/"}

	result := runLoad(t, dump, cfg)

	node, err := result.Store.Lookup(domain.KindDevice, domain.Key{"hkg-leaf-01"})
	require.NoError(t, err)
	assert.Equal(t, domain.Device{
		Name:            "hkg-leaf-01",
		Status:          domain.DeviceStatusActive,
		Role:            "Leaf",
		Vendor:          "Cisco",
		Model:           "N9K-C93180YC-EX",
		Platform:        "cisco_nxos",
		Site:            "hkg",
		Floor:           "hkg - 1",
		Serial:          "FDO1111",
		Version:         "9.3(8)",
		Tenant:          "acme",
		ControllerGroup: "dnac-prod",
	}, node)

	node, err = result.Store.Lookup(domain.KindDevice, domain.Key{"hkg-leaf-02"})
	require.NoError(t, err)
	d2 := node.(domain.Device)
	assert.Equal(t, "Access", d2.Role, "first matching rule wins")
	assert.Equal(t, domain.DeviceStatusOffline, d2.Status)
	assert.Empty(t, d2.Floor)

	floorRef := domain.RefOf(domain.Floor{Name: "hkg - 1", Building: "hkg"})
	assert.Equal(t, []domain.Ref{{Kind: domain.KindDevice, Key: domain.Key{"hkg-leaf-01"}}},
		result.Store.Children(floorRef, domain.KindDevice))
}

func TestDeviceBuildingOverride(t *testing.T) {
	cfg := defaultLoadConfig()
	cfg.LocationMap = map[string]config.LocationOverride{
		"hkg": {Name: "Hong Kong"},
	}

	result := runLoad(t, asiaDump(), cfg)

	assert.Equal(t, 2, result.Stats.Loaded)
	node, err := result.Store.Lookup(domain.KindDevice, domain.Key{"hkg-leaf-01"})
	require.NoError(t, err)
	assert.Equal(t, "Hong Kong", node.(domain.Device).Site)

	building := domain.RefOf(domain.Building{Name: "Hong Kong", Area: "China"})
	assert.Len(t, result.Store.Children(building, domain.KindDevice), 2)
}

func TestRoleFor(t *testing.T) {
	rules, err := compileRoleRules([]config.RoleRule{{Pattern: "-core-", Role: "Core"}})
	require.NoError(t, err)
	d := &DeviceLoader{rules: rules}

	assert.Equal(t, "Core", d.roleFor(source.Device{Hostname: "sin-core-01", Role: "DISTRIBUTION"}))
	assert.Equal(t, "DISTRIBUTION", d.roleFor(source.Device{Hostname: "sin-dist-01", Role: "DISTRIBUTION"}))
	assert.Equal(t, "Unknown", d.roleFor(source.Device{Hostname: "sin-dist-01"}))
}

func TestCompileRoleRulesInvalid(t *testing.T) {
	_, err := compileRoleRules([]config.RoleRule{{Pattern: "([", Role: "Broken"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostname rule 0")

	cfg := defaultLoadConfig()
	cfg.HostnameMap = []config.RoleRule{{Pattern: "([", Role: "Broken"}}
	_, err = New(source.NewFileClient(asiaDump()), cfg, nil)
	assert.Error(t, err)
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		name   string
		device source.Device
		want   string
	}{
		{"ios", source.Device{SoftwareType: "IOS"}, "cisco_ios"},
		{"ios-xe", source.Device{SoftwareType: "IOS-XE"}, "cisco_ios"},
		{"nx-os", source.Device{SoftwareType: "NX-OS"}, "cisco_nxos"},
		{"ios-xr", source.Device{SoftwareType: "IOS-XR"}, "cisco_xr"},
		{"access point 3800", source.Device{Type: "Cisco 3800I Unified Access Point"}, "cisco_ios"},
		{"access point 9130", source.Device{Type: "Cisco Catalyst 9130AXI Unified Access Point"}, "cisco_ios"},
		{"meraki", source.Device{Family: "Meraki Switches"}, "cisco_meraki"},
		{"unknown software", source.Device{SoftwareType: "JUNOS", Type: "3800"}, "unknown"},
		{"nothing known", source.Device{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, platformFor(tt.device))
		})
	}
}

func TestVendorModelStatus(t *testing.T) {
	assert.Equal(t, "Juniper", vendorFor(source.Device{Type: "Juniper EX4300"}))
	assert.Equal(t, "Cisco", vendorFor(source.Device{Type: "Cisco Catalyst 9300"}))

	assert.Equal(t, "C9300-48U", modelFor(source.Device{PlatformID: "C9300-48U, C9300-48U"}))
	assert.Equal(t, "Unknown", modelFor(source.Device{}))

	assert.Equal(t, domain.DeviceStatusOffline, deviceStatus(source.Device{ReachabilityStatus: "Unreachable"}))
	assert.Equal(t, domain.DeviceStatusActive, deviceStatus(source.Device{ReachabilityStatus: "Ping Reachable"}))
}
