// Package peripheral models the SIO0 (JOY) serial port: the shift-register
// protocol the BIOS's controller-polling routine actually drives, rather
// than a flat memory-mapped button register. Grounded on
// _examples/original_source/src/peripheral/ports/sio0.rs and
// devices/digital_pad.rs; internal/pad supplies the 16-bit button bitmap
// this package's attached device reads from.
package peripheral

import "github.com/rook-emu/psxcore/internal/pad"

// SIO0 register offsets, relative to the peripheral region's base address.
const (
	regData = 0x00 // JOY_TX_DATA / JOY_RX_DATA, 8/16/32-bit
	regStat = 0x04 // JOY_STAT, read-only
	regMode = 0x08 // JOY_MODE
	regCtrl = 0x0A // JOY_CTRL
	regBaud = 0x0E // JOY_BAUD
)

// SIO_STAT bits, per ports/mod.rs.
const (
	statTXReadyStarted  = 1 << 0
	statRXHasData       = 1 << 1
	statTXReadyFinished = 1 << 2
	statACK             = 1 << 7
	statIRQ             = 1 << 9
)

// SIO_CTRL bits.
const (
	ctrlTXEnable   = 1 << 0
	ctrlSelect     = 1 << 1
	ctrlAck        = 1 << 4
	ctrlReset      = 1 << 6
	ctrlIRQEnable  = 1 << 12
	ctrlPortSelect = 1 << 13
)

// ackIRQDelay is the tick countdown between a byte finishing transfer and
// the BYTE_RECEIVED interrupt firing, per sio0.rs's ACK_IRQ_DELAY.
const ackIRQDelay = 1088

// digitalPad is the Device side of the protocol: a 5-step response sequence
// keyed off the attached pad.Controller's button bitmap, per
// devices/digital_pad.rs.
type digitalPad struct {
	pad  *pad.Controller
	step int
}

// send returns the byte the pad shifts out in response to txByte at the
// current step, and whether the device acknowledges (keeping the transfer
// alive for another byte).
func (d *digitalPad) send(txByte uint8) (rx uint8, ack bool) {
	switch d.step {
	case 0:
		d.step = 1
		return 0xFF, true
	case 1:
		d.step = 2
		return 0x41, true // controller ID low byte: digital pad
	case 2:
		d.step = 3
		return 0x5A, true // controller ID high byte
	case 3:
		d.step = 4
		sw := d.pad.Switches()
		return uint8(sw), true
	case 4:
		d.step = 0
		sw := d.pad.Switches()
		return uint8(sw >> 8), false
	default:
		d.step = 0
		return 0xFF, false
	}
}

// SIO0 is the JOY port register file: a TX/RX shift register gated by a
// baudrate timer, with a delayed IRQ after each completed byte transfer.
type SIO0 struct {
	stat uint16
	mode uint16
	ctrl uint16
	baud uint16

	rxData     uint8
	rxReady    bool
	txPending  bool
	txByte     uint8
	shiftTimer int

	ackDelay int

	device *digitalPad

	// IRQHandler is invoked when the delayed BYTE_RECEIVED interrupt fires.
	IRQHandler func()
}

// New wires a SIO0 port to the given digital pad's button bitmap.
func New(padCtrl *pad.Controller) *SIO0 {
	return &SIO0{
		stat:   statTXReadyStarted | statTXReadyFinished,
		device: &digitalPad{pad: padCtrl},
	}
}

// Tick advances the shift-register and ack-delay countdowns by one cycle.
func (s *SIO0) Tick() {
	if s.shiftTimer > 0 {
		s.shiftTimer--
		if s.shiftTimer == 0 {
			s.completeTransfer()
		}
	}
	if s.ackDelay > 0 {
		s.ackDelay--
		if s.ackDelay == 0 {
			s.stat |= statIRQ
			if s.IRQHandler != nil {
				s.IRQHandler()
			}
		}
	}
}

func (s *SIO0) completeTransfer() {
	rx, ack := s.device.send(s.txByte)
	s.rxData = rx
	s.rxReady = true
	s.stat |= statRXHasData | statTXReadyStarted | statTXReadyFinished
	if ack {
		s.stat |= statACK
		s.ackDelay = ackIRQDelay
	}
	s.txPending = false
}

func (s *SIO0) beginTransfer(value uint8) {
	s.txByte = value
	s.txPending = true
	s.stat &^= statTXReadyStarted | statTXReadyFinished
	s.shiftTimer = s.cyclesPerByte()
}

func (s *SIO0) cyclesPerByte() int {
	baud := int(s.baud)
	if baud == 0 {
		baud = 1
	}
	bits := 8
	return baud * bits
}

// Read8 implements the byte-addressed register file the bus dispatches to.
func (s *SIO0) Read8(offset uint32) uint8 {
	switch offset {
	case regData:
		s.stat &^= statRXHasData
		return s.rxData
	case regStat:
		return uint8(s.stat)
	case regStat + 1:
		return uint8(s.stat >> 8)
	case regMode:
		return uint8(s.mode)
	case regCtrl:
		return uint8(s.ctrl)
	case regCtrl + 1:
		return uint8(s.ctrl >> 8)
	case regBaud:
		return uint8(s.baud)
	case regBaud + 1:
		return uint8(s.baud >> 8)
	default:
		return 0
	}
}

// Write8 implements the byte-addressed register file.
func (s *SIO0) Write8(offset uint32, value uint8) {
	switch offset {
	case regData:
		s.beginTransfer(value)
	case regMode:
		s.mode = (s.mode &^ 0xFF) | uint16(value)
	case regCtrl:
		s.ctrl = (s.ctrl &^ 0xFF) | uint16(value)
		s.applyCtrl()
	case regCtrl + 1:
		s.ctrl = (s.ctrl &^ 0xFF00) | uint16(value)<<8
		s.applyCtrl()
	case regBaud:
		s.baud = (s.baud &^ 0xFF) | uint16(value)
	case regBaud + 1:
		s.baud = (s.baud &^ 0xFF00) | uint16(value)<<8
	}
}

func (s *SIO0) applyCtrl() {
	if s.ctrl&ctrlAck != 0 {
		s.stat &^= statIRQ | statACK
	}
	if s.ctrl&ctrlReset != 0 {
		s.stat = statTXReadyStarted | statTXReadyFinished
		s.device.step = 0
	}
}
