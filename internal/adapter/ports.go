package adapter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"netsync/internal/domain"
	"netsync/internal/source"
	"netsync/internal/store"
)

// PortLoader inserts a device's interfaces and their addresses
type PortLoader struct {
	store     *store.Store
	client    source.Client
	addresses *AddressLoader
	debug     bool
	log       *zap.Logger
}

// NewPortLoader creates a port loader
func NewPortLoader(st *store.Store, client source.Client, addresses *AddressLoader, debug bool, logger *zap.Logger) *PortLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortLoader{
		store:     st,
		client:    client,
		addresses: addresses,
		debug:     debug,
		log:       logger.Named("ports"),
	}
}

// Load fetches and inserts the ports of deviceID, which was loaded as device.
// Only context errors are returned; everything else is logged.
func (p *PortLoader) Load(ctx context.Context, deviceID string, device domain.Device, mgmtAddr string) error {
	ports, err := p.client.GetPortInfo(ctx, deviceID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.log.Warn("Unable to fetch ports", zap.String("device", device.Name), zap.Error(err))
		return nil
	}

	deviceRef := domain.RefOf(device)
	for _, rec := range ports {
		p.loadPort(deviceRef, device, rec, mgmtAddr)
	}
	return nil
}

func (p *PortLoader) loadPort(deviceRef domain.Ref, device domain.Device, rec source.Port, mgmtAddr string) {
	mac := strings.ToUpper(rec.MACAddress)
	key := domain.Port{Device: device.Name, Name: rec.PortName, MACAddress: mac}.Key()
	if _, err := p.store.Lookup(domain.KindPort, key); err == nil {
		if p.debug {
			p.log.Warn("Duplicate port attempting to be loaded",
				zap.String("port", rec.PortName), zap.String("device", device.Name))
		}
		return
	}
	if p.debug {
		p.log.Info("Loading port", zap.String("port", rec.PortName), zap.String("device", device.Name))
	}

	mode := domain.PortModeAccess
	if rec.PortMode == "trunk" {
		mode = domain.PortModeTagged
	}

	port := domain.Port{
		Device:      device.Name,
		Name:        rec.PortName,
		MACAddress:  mac,
		Description: rec.Description,
		Enabled:     rec.AdminStatus == "UP",
		Type:        source.PortType(rec),
		Mode:        mode,
		MTU:         source.MTU(rec, domain.DefaultMTU),
		Status:      source.PortStatus(rec),
	}
	if _, _, err := p.store.Upsert(port); err != nil {
		p.log.Warn("Unable to load port",
			zap.String("port", rec.PortName), zap.String("device", device.Name), zap.Error(err))
		return
	}
	if err := p.store.InsertChild(deviceRef, domain.RefOf(port)); err != nil {
		p.log.Warn("Unable to link port to device",
			zap.String("port", rec.PortName), zap.String("device", device.Name), zap.Error(err))
	}

	for _, addr := range rec.Addresses {
		host, mask := addr.Host()
		maskLength, prefix, err := networkPrefix(host, mask)
		if err != nil {
			p.log.Warn("Skipping malformed port address",
				zap.String("port", rec.PortName), zap.String("device", device.Name), zap.Error(err))
			continue
		}
		primary := host == mgmtAddr

		if err := p.addresses.LoadIPAddress(host, maskLength, prefix); err != nil {
			p.log.Warn("Unable to load address", zap.String("host", host), zap.Error(err))
			continue
		}
		if err := p.addresses.LoadIPAddressToInterface(host, prefix, device.Name, rec.PortName, primary); err != nil {
			p.log.Warn("Unable to bind address to port",
				zap.String("host", host), zap.String("port", rec.PortName), zap.Error(err))
		}
	}
}
