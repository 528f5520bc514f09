package hdmi_test

import (
	"testing"

	"github.com/clktmr/hdmidev/hdmi"
)

func TestOptsCheck(t *testing.T) {
	tests := []struct {
		name    string
		opts    hdmi.Opts
		wantErr bool
	}{
		{"zero value", hdmi.Opts{}, false},
		{"exact mode", hdmi.Opts{W: 640, H: 480, BitsPerPixel: 32}, false},
		{"other resolution", hdmi.Opts{W: 800, H: 600}, true},
		{"half height", hdmi.Opts{W: 640, H: 240}, true},
		{"16 bpp", hdmi.Opts{BitsPerPixel: 16}, true},
		{"interlaced", hdmi.Opts{Interlaced: true}, true},
		{"panning", hdmi.Opts{PanX: 8}, true},
		{"undersized virtual", hdmi.Opts{VirtualW: 320, VirtualH: 240}, false},
		{"oversized virtual", hdmi.Opts{VirtualW: 1280, VirtualH: 480}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.Check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			// An accepted proposal is normalized to the one
			// supported mode, undersized virtual included.
			want := hdmi.Opts{
				W: 640, H: 480,
				VirtualW: 640, VirtualH: 480,
				BitsPerPixel: 32,
			}
			if opts != want {
				t.Errorf("normalized to %+v, want %+v", opts, want)
			}
		})
	}
}
