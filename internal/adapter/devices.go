package adapter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"netsync/internal/config"
	"netsync/internal/domain"
	"netsync/internal/source"
	"netsync/internal/store"
)

const (
	defaultRole      = "Unknown"
	defaultPlatform  = "unknown"
	defaultModel     = "Unknown"
	unassignedSite   = "Unassigned"
	merakiFamily     = "Meraki"
	vendorCisco      = "Cisco"
	vendorJuniper    = "Juniper"
	reachUnreachable = "Unreachable"
)

// platformMap translates controller software types to automation platforms
var platformMap = map[string]string{
	"IOS":    "cisco_ios",
	"IOS-XE": "cisco_ios",
	"NX-OS":  "cisco_nxos",
	"IOS-XR": "cisco_xr",
}

// roleRule is a compiled hostname pattern
type roleRule struct {
	re   *regexp.Regexp
	role string
}

func compileRoleRules(rules []config.RoleRule) ([]roleRule, error) {
	compiled := make([]roleRule, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("hostname rule %d (%q): %w", i, r.Pattern, err)
		}
		compiled = append(compiled, roleRule{re: re, role: r.Role})
	}
	return compiled, nil
}

// Stats accounts for every device record of a run.
// Input always equals Loaded + Quarantined + Excluded.
type Stats struct {
	Input       int `json:"input"`
	Loaded      int `json:"loaded"`
	Quarantined int `json:"quarantined"`
	Excluded    int `json:"excluded"`
}

// DeviceLoader places device records in the hierarchy, inserting them or
// quarantining them with a reason.
type DeviceLoader struct {
	store      *store.Store
	client     source.Client
	hierarchy  *HierarchyLoader
	ports      *PortLoader
	cfg        *config.LoadConfig
	rules      []roleRule
	quarantine *Quarantine
	stats      *Stats
	log        *zap.Logger
}

// Load processes every device record in order. Only context errors and
// store failures other than validation abort the loop.
func (d *DeviceLoader) Load(ctx context.Context, devices []source.Device) error {
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.stats.Input++
		if err := d.loadDevice(ctx, dev); err != nil {
			return err
		}
	}
	return nil
}

func (d *DeviceLoader) reject(dev source.Device, reason, message string, detail *source.DeviceDetail, placement *SitePlacement) {
	d.quarantine.Add(QuarantineRecord{
		Reason:   reason,
		Message:  message,
		Device:   dev,
		Detail:   detail,
		Location: placement,
	})
	d.stats.Quarantined++
}

func (d *DeviceLoader) loadDevice(ctx context.Context, dev source.Device) error {
	if !d.cfg.ImportMeraki && isMeraki(dev) {
		if d.cfg.Debug {
			d.log.Info("Skipping Meraki device", zap.String("id", dev.ID), zap.String("hostname", dev.Hostname))
		}
		d.stats.Excluded++
		return nil
	}

	if dev.Hostname == "" {
		d.log.Warn("Device is missing hostname so will be skipped", zap.String("id", dev.ID))
		d.reject(dev, ReasonMissingHostname, "", nil, nil)
		return nil
	}

	if d.cfg.Debug {
		d.log.Info("Loading device", zap.String("hostname", dev.Hostname), zap.String("id", dev.ID))
	}

	detail, err := d.client.GetDeviceDetail(ctx, dev.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		d.log.Warn("Unable to fetch device detail", zap.String("hostname", dev.Hostname), zap.Error(err))
		detail = nil
	}

	var placement SitePlacement
	if detail != nil && detail.SiteHierarchyGraphID != "" {
		placement = d.hierarchy.Index().ResolveSiteHierarchy(detail.SiteHierarchyGraphID)
	}
	buildingName := placement.Building
	if o, ok := d.cfg.Override(buildingName); ok && o.Name != "" {
		buildingName = o.Name
	}

	building, found := d.hierarchy.Building(buildingName)
	if buildingName == "" || buildingName == unassignedSite || !found {
		d.log.Warn("Device is missing building so will not be imported", zap.String("hostname", dev.Hostname))
		d.reject(dev, ReasonMissingBuilding, "", detail, &placement)
		return nil
	}

	if _, err := d.store.Lookup(domain.KindDevice, domain.Key{dev.Hostname}); err == nil {
		d.log.Warn("Duplicate device found", zap.String("hostname", dev.Hostname), zap.String("id", dev.ID))
		d.reject(dev, ReasonDuplicate, "", detail, &placement)
		return nil
	}

	device := domain.Device{
		Name:            dev.Hostname,
		Status:          deviceStatus(dev),
		Role:            d.roleFor(dev),
		Vendor:          vendorFor(dev),
		Model:           modelFor(dev),
		Platform:        platformFor(dev),
		Site:            building.Name,
		Serial:          dev.SerialNumber,
		Version:         dev.SoftwareVersion,
		Tenant:          d.cfg.Tenant,
		ControllerGroup: d.cfg.ControllerGroup,
	}
	if placement.Floor != "" {
		device.Floor = domain.FloorName(building.Name, placement.Floor)
	}

	if _, _, err := d.store.Upsert(device); err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			d.log.Warn("Unable to load device", zap.String("hostname", dev.Hostname), zap.Error(err))
			d.reject(dev, ReasonValidation, ReasonValidation+": "+verr.Message, detail, &placement)
			return nil
		}
		return fmt.Errorf("insert device %s: %w", dev.Hostname, err)
	}
	d.stats.Loaded++

	deviceRef := domain.RefOf(device)
	if err := d.store.InsertChild(domain.RefOf(building), deviceRef); err != nil {
		d.log.Warn("Unable to link device to building", zap.String("hostname", dev.Hostname), zap.Error(err))
	}
	if device.Floor != "" {
		floorRef := domain.RefOf(domain.Floor{Name: device.Floor, Building: building.Name})
		if d.store.Has(floorRef) {
			if err := d.store.InsertChild(floorRef, deviceRef); err != nil {
				d.log.Warn("Unable to link device to floor", zap.String("hostname", dev.Hostname), zap.Error(err))
			}
		}
	}

	return d.ports.Load(ctx, dev.ID, device, dev.ManagementIPAddress)
}

// roleFor returns the role of the first matching hostname rule, then the
// controller's role, then Unknown.
func (d *DeviceLoader) roleFor(dev source.Device) string {
	for _, r := range d.rules {
		if r.re.MatchString(dev.Hostname) {
			return r.role
		}
	}
	if dev.Role != "" {
		return dev.Role
	}
	return defaultRole
}

func isMeraki(dev source.Device) bool {
	return strings.Contains(dev.Family, merakiFamily) || strings.Contains(dev.ErrorDescription, merakiFamily)
}

func platformFor(dev source.Device) string {
	if p, ok := platformMap[dev.SoftwareType]; ok {
		return p
	}
	if dev.SoftwareType == "" {
		switch {
		case strings.Contains(dev.Type, "3800"), strings.Contains(dev.Type, "9130"):
			return "cisco_ios"
		case strings.Contains(dev.Family, merakiFamily):
			return "cisco_meraki"
		}
	}
	return defaultPlatform
}

func vendorFor(dev source.Device) string {
	if strings.Contains(dev.Type, vendorJuniper) {
		return vendorJuniper
	}
	return vendorCisco
}

func modelFor(dev source.Device) string {
	if m := source.ModelName(dev.PlatformID); m != "" {
		return m
	}
	return defaultModel
}

func deviceStatus(dev source.Device) string {
	if dev.ReachabilityStatus == reachUnreachable {
		return domain.DeviceStatusOffline
	}
	return domain.DeviceStatusActive
}
