package serial

import (
	"errors"
	"time"
)

// fakePort is a scripted Port for protocol tests. Each Read pops the
// next queued payload; an empty queue reads as a timeout (0, nil).
type fakePort struct {
	reads  [][]byte
	writes [][]byte

	writeErr  error
	failWrite int // fail the Nth write (1-based); 0 means writeErr applies to all
	resetErr  error

	inputResets  int
	outputResets int
	closes       int
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	next := f.reads[0]
	f.reads = f.reads[1:]
	n := copy(p, next)
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil && (f.failWrite == 0 || len(f.writes)+1 == f.failWrite) {
		return 0, f.writeErr
	}
	copied := append([]byte(nil), p...)
	f.writes = append(f.writes, copied)
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.closes++
	return nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error { return nil }

func (f *fakePort) ResetInputBuffer() error {
	f.inputResets++
	return f.resetErr
}

func (f *fakePort) ResetOutputBuffer() error {
	f.outputResets++
	return f.resetErr
}

// openerFor returns an OpenFunc that hands out the given ports by name,
// failing for any name not present.
func openerFor(ports map[string]*fakePort) OpenFunc {
	return func(name string, baud int, timeout time.Duration) (Port, error) {
		p, ok := ports[name]
		if !ok {
			return nil, errors.New("cannot open " + name)
		}
		return p, nil
	}
}

// testTiming keeps deliberate delays at zero but leaves read deadlines
// long enough for the scripted reads to drain.
func testTiming() Timing {
	return Timing{
		HandshakeTimeout: 50 * time.Millisecond,
		ConnectTimeout:   50 * time.Millisecond,
	}
}

func testDetector(ports []PortInfo, opener OpenFunc) *Detector {
	return &Detector{
		BaudRate:  115200,
		Timing:    testTiming(),
		listPorts: func() ([]PortInfo, error) { return ports, nil },
		open:      opener,
		log:       ensureLogger(nil),
	}
}
