package source

import "context"

// Client fetches inventory from a network controller. Every call blocks until
// the controller answers or ctx is done.
type Client interface {
	GetLocations(ctx context.Context) ([]Location, error)
	GetDevices(ctx context.Context) ([]Device, error)
	GetDeviceDetail(ctx context.Context, deviceID string) (*DeviceDetail, error)
	GetPortInfo(ctx context.Context, deviceID string) ([]Port, error)
}
