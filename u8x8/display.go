package u8x8

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts is the configuration for the display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 128, must be ≤128)
	H int // Height (default: 64, multiple of 8, ≤64)

	Rotated  bool // 180° rotation
	Contrast byte // Initial contrast

	// ColumnOffset shifts the visible window inside controller RAM. 132
	// column controllers such as the SH1106 need 2.
	ColumnOffset int

	// Differential makes SendBuffer skip pages the panel already shows.
	Differential bool

	// ChunkSize is the number of data bytes per transfer, 0 for
	// DefaultChunkSize. Transports with a larger transmit buffer can carry
	// up to one byte less than their capacity, the control byte taking
	// the rest.
	ChunkSize int

	// Reset timing in milliseconds
	ResetPulse    uint8
	PostResetWait uint8
}

// DefaultOpts is the configuration of a 128x64 SSD1306 module.
var DefaultOpts = Opts{
	W:             128,
	H:             64,
	Contrast:      0xCF,
	ResetPulse:    100,
	PostResetWait: 100,
}

var errHalted = errors.New("u8x8: halted")

const (
	ctrlCommand = 0x00 // Co=0, D/C#=0
	ctrlData    = 0x40 // Co=0, D/C#=1
)

// DefaultChunkSize bounds the data bytes per transfer so that control byte
// plus data fits small transmit buffers.
const DefaultChunkSize = 24

// Dev is the graphics handle for a SSD1306 class monochrome display.
//
// Drawing happens in a local framebuffer; SendBuffer pushes it to the
// panel through the ByteHandler.
type Dev struct {
	// Communication
	b ByteHandler
	g GpioHandler // nil when the transport has no GPIO contract

	// Display geometry
	rect         image.Rectangle
	columnOffset int
	rotated      bool

	contrast      byte
	resetPulse    uint8
	postResetWait uint8

	// Pixel buffers
	buf  *image1bit.VerticalLSB
	last []byte // Page contents last acknowledged by the bus
	sent []bool // Per page: last matches the panel

	face font.Face

	differential bool
	chunk        int
	powerSave    bool
	halted       bool
}

// New returns a display handle writing through b.
//
// If b also implements GpioHandler, reset and delay messages are sent to
// it; otherwise they are skipped. opts can be nil to use DefaultOpts.
//
// New does not talk to the hardware, call InitDisplay for that.
func New(b ByteHandler, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if b == nil {
		return nil, errors.New("u8x8: nil byte handler")
	}
	if opts.W <= 0 || opts.W > 128 {
		return nil, errors.New("u8x8: width must be between 1 and 128")
	}
	if opts.H <= 0 || opts.H > 64 || opts.H%8 != 0 {
		return nil, errors.New("u8x8: height must be a multiple of 8 between 8 and 64")
	}
	if opts.ColumnOffset < 0 || opts.ColumnOffset+opts.W > 132 {
		return nil, errors.New("u8x8: column offset out of range")
	}
	chunk := opts.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	if chunk < 0 {
		return nil, errors.New("u8x8: chunk size must not be negative")
	}

	rect := image.Rect(0, 0, opts.W, opts.H)
	buf := image1bit.NewVerticalLSB(rect)
	pages := opts.H / 8
	d := &Dev{
		b:             b,
		rect:          rect,
		columnOffset:  opts.ColumnOffset,
		rotated:       opts.Rotated,
		contrast:      opts.Contrast,
		resetPulse:    opts.ResetPulse,
		postResetWait: opts.PostResetWait,
		buf:           buf,
		last:          make([]byte, len(buf.Pix)),
		sent:          make([]bool, pages),
		face:          bitmapfont.Face,
		differential:  opts.Differential,
		chunk:         chunk,
	}
	if g, ok := b.(GpioHandler); ok {
		d.g = g
	}
	return d, nil
}

// InitDisplay resets the controller and sends the initialization sequence.
//
// The display is left in power save mode; call SetPowerSave(false) to turn
// it on.
func (d *Dev) InitDisplay() error {
	if err := d.gpio(GpioAndDelayInit, 0); err != nil {
		return fmt.Errorf("u8x8: gpio init failed: %w", err)
	}
	if err := d.b.HandleByte(ByteInit, 0, nil); err != nil {
		return fmt.Errorf("u8x8: bus init failed: %w", err)
	}

	// Hardware reset sequence; transports without a reset line ignore the
	// GPIO messages but still wait.
	reset := []struct {
		msg GpioMsg
		arg uint8
	}{
		{GpioReset, 1},
		{DelayMilli, d.resetPulse},
		{GpioReset, 0},
		{DelayMilli, d.resetPulse},
		{GpioReset, 1},
		{DelayMilli, d.postResetWait},
	}
	for _, s := range reset {
		if err := d.gpio(s.msg, s.arg); err != nil {
			return fmt.Errorf("u8x8: reset failed: %w", err)
		}
	}

	// Remap settings: adjust for rotation
	remap, scan := byte(0xA1), byte(0xC8)
	if d.rotated {
		remap, scan = 0xA0, 0xC0
	}
	comPins := byte(0x12)
	if d.rect.Dy() <= 32 {
		comPins = 0x02
	}

	if err := d.sendCommands(
		0xAE,       // Display OFF
		0xD5, 0x80, // Clock divider and oscillator frequency
		0xA8, byte(d.rect.Dy()-1), // MUX ratio
		0xD3, 0x00, // Display offset
		0x40,       // Start line
		0x8D, 0x14, // Charge pump on
		0x20, 0x02, // Page addressing mode
		remap,
		scan,
		0xDA, comPins, // COM pins configuration
		0x81, d.contrast, // Contrast
		0xD9, 0xF1, // Pre-charge period
		0xDB, 0x40, // VCOMH deselect level
		0x2E, // Deactivate scroll
		0xA4, // Output follows RAM
		0xA6, // Normal display mode
	); err != nil {
		return err
	}

	d.halted = false
	d.powerSave = true
	for i := range d.sent {
		d.sent[i] = false
	}
	return nil
}

// SetPowerSave turns the panel off (true) or on (false). RAM content is
// retained.
func (d *Dev) SetPowerSave(on bool) error {
	if d.halted {
		return errHalted
	}
	cmd := byte(0xAF) // Display ON
	if on {
		cmd = 0xAE // Display OFF
	}
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	d.powerSave = on
	return nil
}

// PowerSave reports whether the panel is off.
func (d *Dev) PowerSave() bool {
	return d.powerSave
}

// SendBuffer writes the framebuffer to the panel, page by page.
//
// Every page is attempted even if an earlier one fails; the failures are
// joined in the returned error. In differential mode, pages the panel
// already shows are skipped and a failed page is resent on the next call.
func (d *Dev) SendBuffer() error {
	if d.halted {
		return errHalted
	}
	var errs []error
	for _, p := range d.calculateDiff() {
		page := d.page(d.buf.Pix, p)
		if err := d.writePage(p, page); err != nil {
			d.sent[p] = false
			errs = append(errs, fmt.Errorf("u8x8: page %d: %w", p, err))
			continue
		}
		copy(d.page(d.last, p), page)
		d.sent[p] = true
	}
	return errors.Join(errs...)
}

// calculateDiff returns the pages SendBuffer has to write.
func (d *Dev) calculateDiff() []int {
	pages := make([]int, 0, len(d.sent))
	for p := range d.sent {
		if d.differential && d.sent[p] && bytes.Equal(d.page(d.buf.Pix, p), d.page(d.last, p)) {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}

// page returns the bytes of page p in a buffer laid out like d.buf.
func (d *Dev) page(pix []byte, p int) []byte {
	start := p * d.buf.Stride
	return pix[start : start+d.rect.Dx()]
}

// writePage addresses page p and streams its data.
func (d *Dev) writePage(p int, data []byte) error {
	col := d.columnOffset
	if err := d.sendCommands(
		0xB0|byte(p),           // Page start address
		0x00|byte(col&0x0F),    // Lower column start address
		0x10|byte(col>>4&0x0F), // Higher column start address
	); err != nil {
		return err
	}
	return d.sendData(data)
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	return d.sendCommands(cmd)
}

// sendCommands sends command bytes in one transfer.
func (d *Dev) sendCommands(cmds ...byte) error {
	return d.transfer(ctrlCommand, cmds)
}

// sendData sends data bytes, split into transfers of at most d.chunk bytes.
func (d *Dev) sendData(data []byte) error {
	for len(data) > 0 {
		n := min(len(data), d.chunk)
		if err := d.transfer(ctrlData, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// transfer wraps a control byte and payload in START, SEND and END
// messages.
//
// A failed SEND still closes the transfer, after a second START drops the
// partial payload, so the handler never sees a START without its END.
func (d *Dev) transfer(ctrl byte, payload []byte) error {
	if err := d.b.HandleByte(ByteStartTransfer, 0, nil); err != nil {
		return err
	}
	if err := d.send(ctrl, payload); err != nil {
		return errors.Join(
			err,
			d.b.HandleByte(ByteStartTransfer, 0, nil),
			d.b.HandleByte(ByteEndTransfer, 0, nil),
		)
	}
	return d.b.HandleByte(ByteEndTransfer, 0, nil)
}

// send passes the control byte and payload as SEND messages of at most 255
// bytes.
func (d *Dev) send(ctrl byte, payload []byte) error {
	if err := d.b.HandleByte(ByteSend, 1, []byte{ctrl}); err != nil {
		return err
	}
	for len(payload) > 0 {
		n := min(len(payload), 255)
		if err := d.b.HandleByte(ByteSend, uint8(n), payload[:n]); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

func (d *Dev) gpio(msg GpioMsg, arg uint8) error {
	if d.g == nil {
		return nil
	}
	return d.g.HandleGpio(msg, arg)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Image returns the framebuffer. It is only valid until the next drawing
// call.
func (d *Dev) Image() image.Image {
	return d.buf
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return errHalted
	}
	if err := d.sendCommands(0x81, contrast); err != nil {
		return err
	}
	d.contrast = contrast
	return nil
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	mode := byte(0xA6) // Normal display
	if invert {
		mode = 0xA7 // Inverted display
	}
	return d.sendCommand(mode)
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands
// until InitDisplay is called again.
func (d *Dev) Halt() error {
	if err := d.SetPowerSave(true); err != nil && !errors.Is(err, errHalted) {
		return err
	}
	d.halted = true
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("u8x8.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// ScrollSpeed defines the horizontal scroll step interval.
type ScrollSpeed byte

const (
	// Scroll step intervals, in frames
	Speed2Frames   ScrollSpeed = 0x07
	Speed3Frames   ScrollSpeed = 0x04
	Speed4Frames   ScrollSpeed = 0x05
	Speed5Frames   ScrollSpeed = 0x00
	Speed25Frames  ScrollSpeed = 0x06
	Speed64Frames  ScrollSpeed = 0x01
	Speed128Frames ScrollSpeed = 0x02
	Speed256Frames ScrollSpeed = 0x03
)

// ScrollHorizontal starts horizontal scrolling on the display.
// startPage and endPage specify the scroll region in 8 pixel pages.
// If right is true, scrolls right; otherwise scrolls left.
func (d *Dev) ScrollHorizontal(startPage, endPage byte, speed ScrollSpeed, right bool) error {
	if d.halted {
		return errHalted
	}

	pages := byte(d.rect.Dy() / 8)
	if startPage >= pages || endPage >= pages || startPage > endPage {
		return errors.New("u8x8: scroll page out of range")
	}

	// Select scroll direction command
	scrollCmd := byte(0x27) // Left
	if right {
		scrollCmd = 0x26 // Right
	}

	// Send scroll setup command
	return d.sendCommands(
		scrollCmd,
		0x00,             // Dummy byte (always 0x00)
		startPage,        // Start page
		byte(speed)&0x07, // Step interval
		endPage,          // End page
		0x00, 0xFF,       // Dummy bytes
		0x2F, // Activate scroll
	)
}

// StopScroll stops all scrolling. RAM content must be rewritten afterwards
// since scrolling modifies it.
func (d *Dev) StopScroll() error {
	if d.halted {
		return errHalted
	}
	if err := d.sendCommand(0x2E); err != nil { // Deactivate scroll
		return err
	}
	for i := range d.sent {
		d.sent[i] = false
	}
	return nil
}
