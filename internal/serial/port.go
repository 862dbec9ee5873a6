package serial

import (
	"time"

	"go.bug.st/serial"
)

// Port is the duplex byte channel the detector and uploader talk through.
// It is the subset of go.bug.st/serial.Port the protocol needs, kept small
// so tests can substitute a scripted implementation.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// OpenFunc opens a port by name at the given baud rate with a read timeout.
type OpenFunc func(portName string, baudRate int, readTimeout time.Duration) (Port, error)

// OpenPort is the production OpenFunc backed by go.bug.st/serial.
func OpenPort(portName string, baudRate int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// readUpTo reads at most max bytes from the port, accumulating partial reads
// until max bytes have arrived, the deadline passes, or the port errors.
// A short (or empty) result is not an error.
func readUpTo(port Port, max int, deadline time.Duration) []byte {
	buf := make([]byte, max)
	total := 0
	start := time.Now()

	for total < max && time.Since(start) < deadline {
		n, err := port.Read(buf[total:])
		if err != nil {
			break
		}
		if n == 0 {
			// Read timeout with nothing buffered; the device is done talking.
			break
		}
		total += n
	}
	return buf[:total]
}
