// Package grabber defines the contract between the pipeline and an
// organized point-cloud acquisition source, plus the device addressing
// shared by its implementations.
//
// Concrete sources live in subpackages: grabber/synthetic (in-process test
// and demo source) and grabber/gstdepth (GStreamer depth-video capture).
package grabber

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/e7canasta/meshview/cloud"
)

// Provider is the acquisition collaborator.
//
// Implementations must guarantee:
//   - RegisterCallback is called before Start; the callback runs on the
//     provider's own goroutine at whatever rate the device delivers.
//   - Clouds handed to the callback are immutable from that point on.
//   - Stop is synchronous: once it returns, no further callback
//     invocations occur. This lets the driver tear down shared state
//     without racing a late frame.
//   - ProvidesColor is a one-time capability probe, valid before Start.
type Provider interface {
	RegisterCallback(fn func(*cloud.Cloud))
	Start() error
	Stop() error
	ProvidesColor() bool
}

// DeviceInfo describes one enumerated capture device, for --help
// diagnostics.
type DeviceInfo struct {
	Index   int // 1-based, addressable as "#N"
	Vendor  string
	Product string
	Bus     int
	Address int
	Serial  string
}

// String formats the device the way the usage screen prints it.
func (d DeviceInfo) String() string {
	return fmt.Sprintf("Device: %d, vendor: %s, product: %s, connected: %d @ %d, serial number: '%s'",
		d.Index, d.Vendor, d.Product, d.Bus, d.Address, d.Serial)
}

// DeviceIDKind discriminates the parsed addressing forms.
type DeviceIDKind int

const (
	// KindDefault selects the first available device (empty id string).
	KindDefault DeviceIDKind = iota
	// KindIndex addresses the N-th enumerated device ("#N").
	KindIndex
	// KindBusAddress addresses a device by usb bus/address ("bus@address").
	KindBusAddress
	// KindSerial addresses a device by serial number (any other string).
	KindSerial
)

// DeviceID is a parsed device identifier. The exact semantics of each form
// are owned by the provider; parsing here only normalizes the syntax shared
// across providers.
type DeviceID struct {
	Kind    DeviceIDKind
	Index   int
	Bus     int
	Address int
	Serial  string
}

// ErrBadDeviceID is wrapped by ParseDeviceID for malformed identifiers.
var ErrBadDeviceID = errors.New("grabber: malformed device id")

// ParseDeviceID parses the opaque CLI device string.
//
// Supported forms:
//
//	""            first available device
//	"#N"          N-th device in enumeration order (1-based)
//	"bus@address" usb bus/address pair, both decimal
//	anything else serial number
func ParseDeviceID(s string) (DeviceID, error) {
	switch {
	case s == "":
		return DeviceID{Kind: KindDefault}, nil

	case strings.HasPrefix(s, "#"):
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 1 {
			return DeviceID{}, fmt.Errorf("%w: %q (want #N with N >= 1)", ErrBadDeviceID, s)
		}
		return DeviceID{Kind: KindIndex, Index: n}, nil

	case strings.Contains(s, "@"):
		bus, addr, _ := strings.Cut(s, "@")
		b, err1 := strconv.Atoi(bus)
		a, err2 := strconv.Atoi(addr)
		if err1 != nil || err2 != nil || b < 0 || a < 0 {
			return DeviceID{}, fmt.Errorf("%w: %q (want bus@address, decimal)", ErrBadDeviceID, s)
		}
		return DeviceID{Kind: KindBusAddress, Bus: b, Address: a}, nil

	default:
		return DeviceID{Kind: KindSerial, Serial: s}, nil
	}
}
