package hdmi_test

import (
	"errors"
	"testing"

	"github.com/clktmr/hdmidev/hdmi"
	"github.com/clktmr/hdmidev/hdmi/hdmitest"
)

func attach(t *testing.T) (*hdmitest.Platform, *hdmi.Device) {
	t.Helper()
	p := hdmitest.New()
	p.SetCoord(0, 100, 200) // mid-frame, outside all blanking intervals
	d, err := hdmi.Attach(p, nil)
	if err != nil {
		t.Fatal("attach:", err)
	}
	return p, d
}

func TestPositionDecode(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	p.SetCoord(4095, 524, 799)
	pos, err := d.Position()
	if err != nil {
		t.Fatal(err)
	}
	if pos.Frame != 4095 || pos.Y != 524 || pos.X != 799 {
		t.Errorf("got %+v, want {4095 524 799}", pos)
	}

	p.SetCoord(0, 0, 0)
	pos, err = d.Position()
	if err != nil {
		t.Fatal(err)
	}
	if pos != (hdmi.Coord{}) {
		t.Errorf("got %+v, want zero", pos)
	}
}

func TestVBlankBoundary(t *testing.T) {
	tests := []struct {
		y    uint16
		want bool
	}{
		{0, true},
		{10, true},
		{44, true},  // last blanking row
		{45, false}, // first visible row
		{300, false},
		{524, false},
	}
	for _, tt := range tests {
		if got := (hdmi.Coord{Y: tt.y}).VBlank(); got != tt.want {
			t.Errorf("row %d: VBlank() = %v, want %v", tt.y, got, tt.want)
		}
	}
}

func TestVSyncWindow(t *testing.T) {
	tests := []struct {
		y    uint16
		want bool
	}{
		{9, false},
		{10, true},
		{11, true},
		{12, false},
		{45, false},
	}
	for _, tt := range tests {
		if got := (hdmi.Coord{Y: tt.y}).VSync(); got != tt.want {
			t.Errorf("row %d: VSync() = %v, want %v", tt.y, got, tt.want)
		}
	}
}

func TestHBlankBoundary(t *testing.T) {
	tests := []struct {
		x    uint16
		want bool
	}{
		{0, true},
		{159, true},
		{160, false},
		{799, false},
	}
	for _, tt := range tests {
		if got := (hdmi.Coord{X: tt.x}).HBlank(); got != tt.want {
			t.Errorf("column %d: HBlank() = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestPositionDeadDevice(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	p.ClearCoordValid()
	_, err := d.Position()
	if !errors.Is(err, hdmi.ErrNoPosition) {
		t.Errorf("got %v, want ErrNoPosition", err)
	}
}
