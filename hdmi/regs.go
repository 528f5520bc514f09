package hdmi

import (
	"fmt"

	"github.com/clktmr/hdmidev/mmio"
)

// Register map of the hdmi-cmd-gen block. The whole block is RegsLen bytes of
// device memory.
const (
	regCtrl      = 0x00 // block control, see ctrlFlag
	regGIE       = 0x04 // global interrupt enable, bit 0
	regIER       = 0x08 // interrupt enable, see intrFlag
	regISR       = 0x0c // interrupt status, write bits back to clear
	regBuf       = 0x10 // bus address of the scanout buffer
	regCoordData = 0x18 // packed scan coordinate (RO)
	regCoordCtrl = 0x1c // coordinate handshake (RO)

	// RegsLen is the length of the device's register block in bytes.
	RegsLen = 0x20
)

type ctrlFlag uint32

const (
	ctrlStart       ctrlFlag = 1 << 0 // begin scanout
	ctrlDone        ctrlFlag = 1 << 1
	ctrlIdle        ctrlFlag = 1 << 2
	ctrlReady       ctrlFlag = 1 << 3
	ctrlAutoRestart ctrlFlag = 1 << 7 // restart scanout after each frame
	ctrlInterrupt   ctrlFlag = 1 << 9 // an enabled interrupt is pending
)

type intrFlag uint32

const (
	intrDone  intrFlag = 1 << 0
	intrFrame intrFlag = 1 << 1 // fired once at the start of every frame
)

// coordCtrl bit 0: coordData holds a fresh coordinate. Reading coordData
// clears it until the device's next sample.
const coordValid = 1 << 0

// registers is a typed view of the device's register block.
type registers struct {
	ctrl      *mmio.R32[ctrlFlag]
	gie       *mmio.U32
	ier       *mmio.R32[intrFlag]
	isr       *mmio.R32[intrFlag]
	buf       *mmio.U32
	coordData *mmio.U32
	coordCtrl *mmio.U32
}

func newRegisters(w *mmio.Window) (*registers, error) {
	if w.Len() != RegsLen {
		return nil, fmt.Errorf("hdmi: register window is %#x bytes, want %#x", w.Len(), RegsLen)
	}
	return &registers{
		ctrl:      mmio.Reg[ctrlFlag](w, regCtrl),
		gie:       w.U32(regGIE),
		ier:       mmio.Reg[intrFlag](w, regIER),
		isr:       mmio.Reg[intrFlag](w, regISR),
		buf:       w.U32(regBuf),
		coordData: w.U32(regCoordData),
		coordCtrl: w.U32(regCoordCtrl),
	}, nil
}
