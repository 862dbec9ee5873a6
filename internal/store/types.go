package store

import "time"

// DetectRecord captures the result of one device scan.
type DetectRecord struct {
	Port       string    `json:"port"`
	DeviceType string    `json:"device_type"`
	Verified   bool      `json:"verified"`
	Handshake  bool      `json:"handshake"`
	Timestamp  time.Time `json:"timestamp"`
}

// UploadRecord captures the result of one firmware upload.
type UploadRecord struct {
	Port      string    `json:"port"`
	File      string    `json:"file"`
	BaudRate  int       `json:"baud_rate"`
	ChunkSize int       `json:"chunk_size"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	BytesSent int       `json:"bytes_sent"`
	Duration  string    `json:"duration"`
	Message   string    `json:"message,omitempty"`
}
