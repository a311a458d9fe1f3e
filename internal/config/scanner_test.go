package config

import (
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"1080x1920", 1080, 1920, false},
		{" 800X480 ", 800, 480, false},
		{"1080", 0, 0, true},
		{"ax480", 0, 0, true},
		{"800xb", 0, 0, true},
		{"0x480", 0, 0, true},
		{"-1x480", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("SCAN_PORT", "")
	t.Setenv("SCAN_DEVICE", "")
	t.Setenv("SCAN_DISPLAY", "")

	if Port() != DefaultPort {
		t.Errorf("Port = %q", Port())
	}
	if DeviceID() != -1 {
		t.Errorf("DeviceID = %d", DeviceID())
	}
	if DisplayOverride() != "" {
		t.Errorf("DisplayOverride = %q", DisplayOverride())
	}

	t.Setenv("SCAN_PORT", "9000")
	t.Setenv("SCAN_DEVICE", "2")
	t.Setenv("SCAN_DISPLAY", "720x1280")
	if Port() != "9000" {
		t.Errorf("Port = %q", Port())
	}
	if DeviceID() != 2 {
		t.Errorf("DeviceID = %d", DeviceID())
	}
	if DisplayOverride() != "720x1280" {
		t.Errorf("DisplayOverride = %q", DisplayOverride())
	}

	t.Setenv("SCAN_DEVICE", "front")
	if DeviceID() != -1 {
		t.Errorf("non-numeric DeviceID = %d", DeviceID())
	}
}

func TestHistoryPath(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "scans.json")
	t.Setenv("SCAN_HISTORY", custom)
	if HistoryPath() != custom {
		t.Errorf("HistoryPath = %q", HistoryPath())
	}

	t.Setenv("SCAN_HISTORY", "")
	if filepath.Base(HistoryPath()) != DefaultHistoryFile {
		t.Errorf("default HistoryPath = %q", HistoryPath())
	}
}

func TestURLs(t *testing.T) {
	if got := DashboardURL("localhost", "8090"); got != "http://localhost:8090" {
		t.Errorf("DashboardURL = %q", got)
	}
	if got := ResultsSocketURL("10.0.0.5", "8090"); got != "ws://10.0.0.5:8090/ws/results" {
		t.Errorf("ResultsSocketURL = %q", got)
	}
}
