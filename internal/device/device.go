// Package device reads the target device config file written by the IDE
// (devices.json).
//
// The document is keyed by platform, then by device name:
//
//	{"mac": {"MyMac": {"hostname": "...", "username": "...", ...}},
//	 "android": {"Auto": {"Pixel": {...}}}}
//
// Android devices are nested one level deeper, under "Auto".
package device

import (
	"errors"
	"fmt"
	"os"

	"github.com/goplus/rubber/internal/inherit"
)

var (
	ErrInvalid        = errors.New("invalid device config file")
	ErrDeviceNotFound = errors.New("target device not found in device config file")
	ErrNoHostMac      = errors.New("building for iOS requires the host Mac in the device config file")
)

// Device is one device entry.
type Device struct {
	Name   string
	Fields map[string]string
}

// Get returns a connection field of d, or "".
func (d Device) Get(key string) string {
	return d.Fields[key]
}

// Config is a parsed device config file.
type Config struct {
	root *inherit.Object
}

// Load reads the device config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a device config document.
func Parse(data []byte) (*Config, error) {
	v, err := inherit.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	root, ok := v.(*inherit.Object)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalid)
	}
	return &Config{root: root}, nil
}

// Select returns the named device of platform. An empty name selects the
// first device listed for the platform.
func (c *Config) Select(platform, name string) (Device, error) {
	devices, err := c.devices(platform)
	if err != nil {
		return Device{}, err
	}
	if name == "" {
		keys := devices.Keys()
		if len(keys) == 0 {
			return Device{}, fmt.Errorf("%w: no %s devices", ErrDeviceNotFound, platform)
		}
		name = keys[0]
	}
	return entry(devices, name)
}

// HostMac returns the Mac entry an iOS device builds through.
func (c *Config) HostMac(ios Device) (Device, error) {
	name := ios.Get("hostmac")
	if name == "" {
		return Device{}, ErrNoHostMac
	}
	macs, err := c.devices("mac")
	if err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrNoHostMac, err)
	}
	d, err := entry(macs, name)
	if err != nil {
		return Device{}, fmt.Errorf("%w: %s", ErrNoHostMac, name)
	}
	return d, nil
}

func (c *Config) devices(platform string) (*inherit.Object, error) {
	v, ok := c.root.Get(platform)
	if !ok {
		return nil, fmt.Errorf("%w: no %s section", ErrDeviceNotFound, platform)
	}
	obj, ok := v.(*inherit.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s section is not an object", ErrInvalid, platform)
	}
	if platform == "android" {
		auto, ok := obj.Get("Auto")
		if !ok {
			return nil, fmt.Errorf("%w: no android Auto section", ErrDeviceNotFound)
		}
		if obj, ok = auto.(*inherit.Object); !ok {
			return nil, fmt.Errorf("%w: android Auto section is not an object", ErrInvalid)
		}
	}
	return obj, nil
}

func entry(devices *inherit.Object, name string) (Device, error) {
	v, ok := devices.Get(name)
	if !ok {
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	obj, ok := v.(*inherit.Object)
	if !ok {
		return Device{}, fmt.Errorf("%w: device %s is not an object", ErrInvalid, name)
	}
	d := Device{Name: name, Fields: make(map[string]string, obj.Len())}
	for _, k := range obj.Keys() {
		val, _ := obj.Get(k)
		switch val := val.(type) {
		case string:
			d.Fields[k] = val
		case nil, *inherit.Object, []any:
		default:
			d.Fields[k] = fmt.Sprint(val)
		}
	}
	return d, nil
}
