package serial

import (
	"bytes"
	"io"
	"log/slog"
	"time"
)

var (
	handshakeRequest  = []byte("PING\n")
	handshakeResponse = []byte("PONG")
)

// Timing bundles the fixed delays and timeouts of the wire protocol.
// Production code uses DefaultTiming; tests shrink everything to near
// zero so the suite stays fast.
type Timing struct {
	// HandshakeTimeout bounds each read during the PING/PONG exchange.
	HandshakeTimeout time.Duration
	// HandshakeSettle is the wait after opening a handshake port, so a
	// board that resets on open finishes booting.
	HandshakeSettle time.Duration
	// HandshakeResponse is the wait between sending PING and reading.
	HandshakeResponse time.Duration
	// ConnectTimeout bounds reads on an upload connection.
	ConnectTimeout time.Duration
	// ConnectSettle is the wait after opening an upload connection.
	ConnectSettle time.Duration
	// MarkerSettle is the wait after the start and complete markers.
	MarkerSettle time.Duration
	// ChunkDelay paces chunk writes so an unbuffered receiver keeps up.
	ChunkDelay time.Duration
}

// DefaultTiming returns the protocol's stock delays.
func DefaultTiming() Timing {
	return Timing{
		HandshakeTimeout:  2 * time.Second,
		HandshakeSettle:   500 * time.Millisecond,
		HandshakeResponse: 100 * time.Millisecond,
		ConnectTimeout:    5 * time.Second,
		ConnectSettle:     2 * time.Second,
		MarkerSettle:      500 * time.Millisecond,
		ChunkDelay:        10 * time.Millisecond,
	}
}

// Candidate is a port provisionally identified as the target device.
type Candidate struct {
	PortName    string
	DeviceType  string
	Description string
	VID         uint16
	PID         uint16
	Verified    bool
}

// Detector scans serial ports for a known microcontroller, optionally
// confirming liveness with a PING/PONG handshake.
type Detector struct {
	BaudRate int
	Timing   Timing

	listPorts func() ([]PortInfo, error)
	open      OpenFunc
	log       *slog.Logger
}

// NewDetector returns a Detector using the host port list and real
// serial transport. logger may be nil.
func NewDetector(baudRate int, logger *slog.Logger) *Detector {
	return &Detector{
		BaudRate:  baudRate,
		Timing:    DefaultTiming(),
		listPorts: ListPorts,
		open:      OpenPort,
		log:       ensureLogger(logger),
	}
}

func ensureLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Detect scans all ports and returns the best candidate, or nil when no
// suitable device is attached (a legitimate empty result, not an error).
//
// Selection runs in three tiers:
//  1. first registry-identified port that passes the handshake
//  2. first registry-identified port, unverified (best effort)
//  3. with handshake enabled and nothing identified, first port of any
//     kind that answers the handshake, labeled Unknown
func (d *Detector) Detect(verifyHandshake bool) *Candidate {
	ports, err := d.listPorts()
	if err != nil {
		d.log.Error("port enumeration failed", "err", err)
		return nil
	}
	d.log.Info("scanned serial ports", "count", len(ports))
	if len(ports) == 0 {
		return nil
	}

	var candidates []*Candidate
	for _, p := range ports {
		vid, okV := p.VendorID()
		pid, okP := p.ProductID()
		if !okV || !okP {
			continue
		}
		label, ok := Identify(vid, pid)
		if !ok {
			continue
		}
		d.log.Info("identified device", "port", p.Name, "type", label)

		c := &Candidate{
			PortName:    p.Name,
			DeviceType:  label,
			Description: p.Description,
			VID:         vid,
			PID:         pid,
		}
		if verifyHandshake {
			c.Verified = d.Handshake(p.Name)
		} else {
			c.Verified = true
		}
		candidates = append(candidates, c)
	}

	for _, c := range candidates {
		if c.Verified {
			d.log.Info("found verified device", "port", c.PortName, "type", c.DeviceType)
			return c
		}
	}
	if len(candidates) > 0 {
		c := candidates[0]
		d.log.Info("using unverified device", "port", c.PortName, "type", c.DeviceType)
		return c
	}

	// Nothing identified by VID/PID. Clones and generic bridges are
	// common, so fall back to probing every port directly.
	if verifyHandshake {
		d.log.Info("no known devices, probing all ports")
		for _, p := range ports {
			if d.Handshake(p.Name) {
				return &Candidate{
					PortName:    p.Name,
					DeviceType:  UnknownDevice,
					Description: p.Description,
					Verified:    true,
				}
			}
		}
	}

	d.log.Warn("no suitable device found")
	return nil
}

// Handshake opens the port, sends PING and reports whether the device
// answered PONG within the timeout. Every failure, including a port
// that cannot be opened, is just "not this device".
func (d *Detector) Handshake(portName string) bool {
	port, err := d.open(portName, d.BaudRate, d.Timing.HandshakeTimeout)
	if err != nil {
		d.log.Debug("cannot open port for handshake", "port", portName, "err", err)
		return false
	}
	defer port.Close()

	time.Sleep(d.Timing.HandshakeSettle)

	// Drop anything the device sent before we asked.
	if err := port.ResetInputBuffer(); err != nil {
		return false
	}

	if _, err := port.Write(handshakeRequest); err != nil {
		return false
	}
	time.Sleep(d.Timing.HandshakeResponse)

	resp := readUpTo(port, len(handshakeResponse), d.Timing.HandshakeTimeout)
	if bytes.Contains(resp, handshakeResponse) {
		d.log.Info("handshake successful", "port", portName)
		return true
	}
	d.log.Debug("handshake failed", "port", portName, "response", string(resp))
	return false
}
