package serial

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// PortInfo holds details about a serial port as reported by the host.
// VID and PID are hex strings straight from the enumerator; virtual ports
// leave them empty.
type PortInfo struct {
	Name         string
	Description  string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// VendorID parses the port's USB vendor ID. ok is false when the port
// exposes none (software/virtual ports).
func (p PortInfo) VendorID() (uint16, bool) {
	return parseID(p.VID)
}

// ProductID parses the port's USB product ID.
func (p PortInfo) ProductID() (uint16, bool) {
	return parseID(p.PID)
}

func parseID(s string) (uint16, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// ListPorts returns the serial ports currently attached to the host.
// The order is host-defined. No attached ports is an empty slice, not
// an error.
func ListPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var result []PortInfo
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			Description:  p.Product,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return result, nil
}

// Device is the display view of a port: always labeled, IDs rendered
// for humans.
type Device struct {
	Port        string
	DeviceType  string
	Description string
	VID         string
	PID         string
}

// ListAllDevices returns every attached port labeled against the known
// device registry. Ports with no registry match keep the label "Unknown".
func ListAllDevices() ([]Device, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return labelPorts(ports), nil
}

func labelPorts(ports []PortInfo) []Device {
	var devices []Device
	for _, p := range ports {
		devices = append(devices, Device{
			Port:        p.Name,
			DeviceType:  identifyPort(p),
			Description: p.Description,
			VID:         displayID(p.VID),
			PID:         displayID(p.PID),
		})
	}
	return devices
}

func identifyPort(p PortInfo) string {
	vid, okV := p.VendorID()
	pid, okP := p.ProductID()
	if okV && okP {
		if label, ok := Identify(vid, pid); ok {
			return label
		}
	}
	return UnknownDevice
}

func displayID(s string) string {
	v, ok := parseID(s)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("0x%04X", v)
}
