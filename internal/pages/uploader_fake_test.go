package pages

import (
	"github.com/akeeley/uplink/internal/serial"
)

// fakeUploader scripts the upload page's transfer dependency.
type fakeUploader struct {
	openOK bool
	result serial.Result
	ticks  [][3]int // progress calls to replay: {percent, sent, total}

	openCalls   int
	closeCalls  int
	uploadCalls int
	lastPath    string
	lastChunk   int
}

func (f *fakeUploader) OpenConnection() bool {
	f.openCalls++
	return f.openOK
}

func (f *fakeUploader) CloseConnection() {
	f.closeCalls++
}

func (f *fakeUploader) Upload(path string, chunkSize int, progress serial.ProgressFunc) serial.Result {
	f.uploadCalls++
	f.lastPath = path
	f.lastChunk = chunkSize
	if progress != nil {
		for _, t := range f.ticks {
			progress(t[0], t[1], t[2])
		}
	}
	return f.result
}

// fakeFactory hands out one fakeUploader and records what it was bound to.
type fakeFactory struct {
	uploader *fakeUploader
	port     string
	baud     int
	calls    int
}

func (f *fakeFactory) new(portName string, baudRate int) FirmwareUploader {
	f.calls++
	f.port = portName
	f.baud = baudRate
	return f.uploader
}

// fakeDetector scripts the detect page's dependency.
type fakeDetector struct {
	next  *serial.Candidate
	calls []bool
}

func (f *fakeDetector) Detect(verifyHandshake bool) *serial.Candidate {
	f.calls = append(f.calls, verifyHandshake)
	return f.next
}
