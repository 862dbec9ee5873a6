package serial

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	uploadStartMarker    = []byte("UPLOAD_START\n")
	uploadCompleteMarker = []byte("\nUPLOAD_COMPLETE\n")
)

// DefaultChunkSize is the stock upload chunk size. Sensible values run
// from about 16 to 512 bytes.
const DefaultChunkSize = 64

// responseLimit caps the free-form acknowledgment read after an upload.
const responseLimit = 100

// ProgressFunc receives upload progress. It runs inline with the write
// loop and must return quickly or it stalls the transfer.
type ProgressFunc func(percent, bytesSent, totalBytes int)

// Result describes the outcome of one upload attempt.
type Result struct {
	Success   bool
	Message   string
	BytesSent int
	Response  string
}

// Uploader sends a firmware payload to one device over a serial port
// using the UPLOAD_START / chunks / UPLOAD_COMPLETE framing. It is
// bound to a port name and baud rate for its lifetime and owns the
// connection between OpenConnection and CloseConnection.
type Uploader struct {
	portName string
	baudRate int
	timing   Timing

	open OpenFunc
	log  *slog.Logger

	conn Port
}

// NewUploader returns an Uploader for the given port and baud rate.
// logger may be nil.
func NewUploader(portName string, baudRate int, logger *slog.Logger) *Uploader {
	return &Uploader{
		portName: portName,
		baudRate: baudRate,
		timing:   DefaultTiming(),
		open:     OpenPort,
		log:      ensureLogger(logger),
	}
}

// OpenConnection opens the serial connection and waits out the device's
// reset. Returns false on any transport failure; the cause is logged.
func (u *Uploader) OpenConnection() bool {
	port, err := u.open(u.portName, u.baudRate, u.timing.ConnectTimeout)
	if err != nil {
		u.log.Error("failed to open serial port", "port", u.portName, "err", err)
		return false
	}
	u.conn = port
	time.Sleep(u.timing.ConnectSettle)
	u.log.Info("opened serial connection", "port", u.portName, "baud", u.baudRate)
	return true
}

// CloseConnection closes the connection if open. Safe to call when the
// connection was never opened or is already closed.
func (u *Uploader) CloseConnection() {
	if u.conn == nil {
		return
	}
	u.conn.Close()
	u.conn = nil
	u.log.Info("serial connection closed")
}

// IsOpen reports whether the connection is currently open.
func (u *Uploader) IsOpen() bool {
	return u.conn != nil
}

// Upload streams the file at path to the device in chunkSize pieces and
// captures the device's response. Every failure mode comes back as a
// Result with Success false; nothing is raised to the caller, including
// panics out of the progress callback.
func (u *Uploader) Upload(path string, chunkSize int, progress ProgressFunc) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			u.log.Error("unexpected error during upload", "err", r)
			result = Result{Message: fmt.Sprintf("upload failed: %v", r)}
		}
	}()

	if u.conn == nil {
		return Result{Message: "serial connection not open"}
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			u.log.Error("firmware file not found", "path", path)
			return Result{Message: fmt.Sprintf("firmware file not found: %s", path)}
		}
		u.log.Error("cannot read firmware file", "path", path, "err", err)
		return Result{Message: fmt.Sprintf("cannot read firmware file %s: %v", path, err)}
	}
	total := len(data)
	u.log.Info("uploading firmware", "path", path, "bytes", total)

	if err := u.conn.ResetInputBuffer(); err != nil {
		return u.transportFailure(err)
	}
	if err := u.conn.ResetOutputBuffer(); err != nil {
		return u.transportFailure(err)
	}

	if _, err := u.conn.Write(uploadStartMarker); err != nil {
		return u.transportFailure(err)
	}
	time.Sleep(u.timing.MarkerSettle)

	bytesSent := 0
	for off := 0; off < total; off += chunkSize {
		end := off + chunkSize
		if end > total {
			end = total
		}
		if _, err := u.conn.Write(data[off:end]); err != nil {
			return u.transportFailure(err)
		}
		bytesSent += end - off

		if progress != nil {
			progress(bytesSent*100/total, bytesSent, total)
		}
		time.Sleep(u.timing.ChunkDelay)
	}

	if _, err := u.conn.Write(uploadCompleteMarker); err != nil {
		return u.transportFailure(err)
	}
	time.Sleep(u.timing.MarkerSettle)

	// Best effort: a short or empty acknowledgment is fine.
	response := readUpTo(u.conn, responseLimit, u.timing.ConnectTimeout)

	u.log.Info("upload complete", "bytes", bytesSent)
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("successfully uploaded %d bytes", bytesSent),
		BytesSent: bytesSent,
		Response:  strings.ToValidUTF8(string(response), ""),
	}
}

func (u *Uploader) transportFailure(err error) Result {
	u.log.Error("serial error during upload", "err", err)
	return Result{Message: fmt.Sprintf("serial communication error: %v", err)}
}
