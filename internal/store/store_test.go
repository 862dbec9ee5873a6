package store

import (
	"testing"
	"time"
)

func TestAddAndRetrieveUploads(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	record := UploadRecord{
		Port:      "/dev/ttyACM0",
		File:      "blink.hex",
		BaudRate:  115200,
		ChunkSize: 64,
		Timestamp: time.Now(),
		Success:   true,
		BytesSent: 130,
		Duration:  "1.3s",
	}

	if err := s.AddUpload(record); err != nil {
		t.Fatalf("AddUpload failed: %v", err)
	}

	uploads, err := s.Uploads()
	if err != nil {
		t.Fatalf("Uploads failed: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploads))
	}
	if uploads[0].BytesSent != 130 {
		t.Errorf("expected bytes_sent=130, got=%d", uploads[0].BytesSent)
	}
}

func TestAddMultipleRecords(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	s.AddDetect(DetectRecord{Port: "/dev/ttyACM0", DeviceType: "Arduino Uno", Verified: true, Timestamp: time.Now()})
	s.AddDetect(DetectRecord{Port: "/dev/ttyUSB0", DeviceType: "ESP32", Timestamp: time.Now()})
	s.AddUpload(UploadRecord{Port: "/dev/ttyACM0", Timestamp: time.Now(), Success: false, Message: "serial communication error"})

	detections, _ := s.Detections()
	if len(detections) != 2 {
		t.Errorf("expected 2 detections, got %d", len(detections))
	}

	uploads, _ := s.Uploads()
	if len(uploads) != 1 {
		t.Errorf("expected 1 upload, got %d", len(uploads))
	}
}

func TestEmptyStore(t *testing.T) {
	tmp := t.TempDir()
	s := New(tmp)

	uploads, err := s.Uploads()
	if err != nil {
		t.Fatalf("Uploads on empty store failed: %v", err)
	}
	if len(uploads) != 0 {
		t.Errorf("expected 0 uploads, got %d", len(uploads))
	}
}
