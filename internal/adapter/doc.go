// Package adapter loads a network controller's inventory into a node store.
//
// A load run is a strictly ordered, single goroutine pipeline:
//
//  1. insert the catch-all prefix 0.0.0.0/0 in the run's namespace
//  2. seed the controller's own location, then index the controller's
//     location records and insert areas, buildings and floors
//  3. insert devices, each immediately followed by its ports and addresses
//  4. optionally log every quarantined device record
//
// # Locations
//
// LocationIndex resolves the flat location list in two passes: first every
// id is registered with its name, then records are classified as area,
// building or floor and their parent names resolved against the completed
// map. HierarchyLoader inserts areas in site hierarchy depth order and
// always inserts an area's ancestors before the area itself, so no child is
// ever inserted ahead of its parent.
//
// # Devices
//
// DeviceLoader never aborts on a bad record. Records without a hostname,
// without a resolvable building, with a hostname already loaded, or failing
// field validation are appended to the Quarantine with a reason. Records of
// excluded vendor families are skipped and counted. Every input record is
// therefore accounted for as loaded, quarantined or excluded.
//
// # Ports and Addresses
//
// PortLoader deduplicates interfaces by device, name and upper-cased MAC
// address. AddressLoader places prefixes and addresses in the tenant's
// namespace, or Global, and binds them to ports with at most one primary
// binding per device.
package adapter
