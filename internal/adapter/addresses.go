package adapter

import (
	"fmt"
	"math/bits"
	"net/netip"
	"strconv"

	"go.uber.org/zap"

	"netsync/internal/domain"
	"netsync/internal/store"
)

// AddressLoader inserts prefixes, addresses and their port bindings into
// the run's namespace.
type AddressLoader struct {
	store     *store.Store
	namespace string
	tenant    string
	debug     bool
	log       *zap.Logger

	// primaries maps a device name to the binding holding its primary address
	primaries map[string]domain.AddressBinding
}

// NewAddressLoader creates a loader for namespace. tenant may be empty.
func NewAddressLoader(st *store.Store, namespace, tenant string, debug bool, logger *zap.Logger) *AddressLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressLoader{
		store:     st,
		namespace: namespace,
		tenant:    tenant,
		debug:     debug,
		log:       logger.Named("addresses"),
		primaries: make(map[string]domain.AddressBinding),
	}
}

// LoadIPAddress ensures prefix and host exist in the namespace
func (a *AddressLoader) LoadIPAddress(host string, maskLength int, prefix string) error {
	p := domain.Prefix{Network: prefix, Namespace: a.namespace, Tenant: a.tenant}
	if _, _, err := a.store.Upsert(p); err != nil {
		return fmt.Errorf("load prefix %s: %w", prefix, err)
	}

	addr := domain.Address{Host: host, MaskLength: maskLength, Namespace: a.namespace, Tenant: a.tenant}
	_, created, err := a.store.Upsert(addr)
	if err != nil {
		return fmt.Errorf("load address %s: %w", host, err)
	}
	if !created {
		if a.debug {
			a.log.Warn("Duplicate IP address attempting to be loaded",
				zap.String("host", host), zap.String("prefix", prefix))
		}
		return nil
	}
	if a.debug {
		a.log.Info("Loading IP address", zap.String("host", host))
	}
	return a.store.InsertChild(domain.RefOf(p), domain.RefOf(addr))
}

// LoadIPAddressToInterface binds host to a port. A device keeps the first
// primary binding it receives; later ones are stored as non-primary.
func (a *AddressLoader) LoadIPAddressToInterface(host, prefix, device, port string, primary bool) error {
	if existing, ok := a.primaries[device]; primary && ok {
		a.log.Warn("Device already has a primary address, binding as secondary",
			zap.String("device", device),
			zap.String("primary", existing.Host),
			zap.String("host", host))
		primary = false
	}

	binding := domain.AddressBinding{Host: host, Prefix: prefix, Device: device, Port: port, Primary: primary}
	node, created, err := a.store.Upsert(binding)
	if err != nil {
		return fmt.Errorf("bind %s to %s %s: %w", host, device, port, err)
	}
	if !created {
		return nil
	}
	if node.(domain.AddressBinding).Primary {
		a.primaries[device] = binding
	}

	addrRef := domain.RefOf(domain.Address{Host: host, Namespace: a.namespace})
	if a.store.Has(addrRef) {
		return a.store.InsertChild(addrRef, domain.RefOf(binding))
	}
	return nil
}

// networkPrefix returns the mask length and the masked network of host,
// e.g. ("10.1.1.5", "255.255.255.0") gives (24, "10.1.1.0/24").
func networkPrefix(host, mask string) (int, string, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return 0, "", fmt.Errorf("invalid host address %q: %w", host, err)
	}
	addr = addr.Unmap()

	length, err := netmaskToCIDR(mask, addr.BitLen())
	if err != nil {
		return 0, "", err
	}

	prefix, err := addr.Prefix(length)
	if err != nil {
		return 0, "", fmt.Errorf("invalid prefix %s/%d: %w", host, length, err)
	}
	return length, prefix.String(), nil
}

// netmaskToCIDR converts a dotted netmask, or a bare prefix length, into a
// prefix length for an address of width bits.
func netmaskToCIDR(mask string, width int) (int, error) {
	if n, err := strconv.Atoi(mask); err == nil {
		if n < 0 || n > width {
			return 0, fmt.Errorf("prefix length %d out of range", n)
		}
		return n, nil
	}

	m, err := netip.ParseAddr(mask)
	if err != nil {
		return 0, fmt.Errorf("invalid netmask %q: %w", mask, err)
	}
	m = m.Unmap()
	if m.BitLen() != width {
		return 0, fmt.Errorf("netmask %q does not match address family", mask)
	}

	length := 0
	seenZero := false
	for _, b := range m.AsSlice() {
		ones := bits.LeadingZeros8(^b)
		if seenZero && b != 0 {
			return 0, fmt.Errorf("netmask %q is not contiguous", mask)
		}
		if ones < 8 {
			if b<<ones != 0 {
				return 0, fmt.Errorf("netmask %q is not contiguous", mask)
			}
			seenZero = true
		}
		length += ones
	}
	return length, nil
}
