package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Dump is a captured controller inventory. JSON dumps parse as well since
// JSON is valid YAML.
type Dump struct {
	Locations []Location              `yaml:"locations"`
	Devices   []Device                `yaml:"devices"`
	Details   map[string]DeviceDetail `yaml:"details,omitempty"`
	Ports     map[string][]Port       `yaml:"ports,omitempty"`
}

// FileClient replays a Dump as a Client
type FileClient struct {
	mu   sync.RWMutex
	path string
	dump *Dump
}

var _ Client = (*FileClient)(nil)

// LoadDump reads a controller dump from a YAML or JSON file
func LoadDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseDump(data)
}

// ParseDump parses a controller dump from YAML or JSON bytes
func ParseDump(data []byte) (*Dump, error) {
	var dump Dump
	if err := yaml.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}
	if dump.Details == nil {
		dump.Details = make(map[string]DeviceDetail)
	}
	if dump.Ports == nil {
		dump.Ports = make(map[string][]Port)
	}
	return &dump, nil
}

// NewFileClient creates a client serving the given dump
func NewFileClient(dump *Dump) *FileClient {
	if dump == nil {
		dump = &Dump{}
	}
	return &FileClient{dump: dump}
}

// OpenFileClient loads the dump at path and wraps it in a client
func OpenFileClient(path string) (*FileClient, error) {
	dump, err := LoadDump(path)
	if err != nil {
		return nil, err
	}
	client := NewFileClient(dump)
	client.path = path
	return client, nil
}

// Reload re-reads the dump from the file the client was opened from. On
// error the previous dump stays in place.
func (c *FileClient) Reload() error {
	if c.path == "" {
		return errors.New("client was not opened from a file")
	}
	dump, err := LoadDump(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.dump = dump
	c.mu.Unlock()
	return nil
}

func (c *FileClient) current() *Dump {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dump
}

// GetLocations returns every location record in the dump
func (c *FileClient) GetLocations(ctx context.Context) ([]Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.current().Locations, nil
}

// GetDevices returns every device record in the dump
func (c *FileClient) GetDevices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.current().Devices, nil
}

// GetDeviceDetail returns the detail for deviceID, or nil when the dump has none
func (c *FileClient) GetDeviceDetail(ctx context.Context, deviceID string) (*DeviceDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detail, ok := c.current().Details[deviceID]
	if !ok {
		return nil, nil
	}
	return &detail, nil
}

// GetPortInfo returns the interfaces recorded for deviceID
func (c *FileClient) GetPortInfo(ctx context.Context, deviceID string) ([]Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.current().Ports[deviceID], nil
}
