package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: ""},
		{name: "Local returns local", timezone: "Local"},
		{name: "valid timezone UTC", timezone: "UTC"},
		{name: "valid timezone America/New_York", timezone: "America/New_York"},
		{name: "valid timezone Asia/Tokyo", timezone: "Asia/Tokyo"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation(%q) error = %v, wantErr %v", tt.timezone, err, tt.wantErr)
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation(%q) returned nil location", tt.timezone)
			}
		})
	}
}

func TestFormatDateKeepsLocation(t *testing.T) {
	// 23:30 on Jan 1 in New York is already Jan 2 in UTC
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	local := time.Date(2026, 1, 1, 23, 30, 0, 0, ny)
	if got := FormatDate(local); got != "2026-01-01" {
		t.Errorf("FormatDate() = %q, want %q", got, "2026-01-01")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 5, 4, 17, 45, 12, 99, time.UTC)
	want := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "~/.config/sutra/sutra.db", want: filepath.Join(home, ".config/sutra/sutra.db")},
		{in: "/tmp/sutra.db", want: "/tmp/sutra.db"},
		{in: "relative.db", want: "relative.db"},
		{in: "~other/file", want: "~other/file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPostgresConnString(t *testing.T) {
	if !IsPostgresConnString("postgres://u@h/db") || !IsPostgresConnString("postgresql://u@h/db") {
		t.Error("IsPostgresConnString() missed a postgres URL")
	}
	if !IsPostgresConnString("host=localhost dbname=sutra user=u") {
		t.Error("IsPostgresConnString() missed a key=value DSN")
	}
	if IsPostgresConnString("~/.config/sutra/sutra.db") {
		t.Error("IsPostgresConnString() matched a sqlite path")
	}
}
