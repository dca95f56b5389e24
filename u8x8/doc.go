// Package u8x8 drives a SSD1306 class monochrome OLED display through a
// transport-agnostic message protocol.
//
// The display never touches a bus directly. Every byte it produces goes
// through a ByteHandler as a sequence of messages:
//
//	ByteStartTransfer
//	ByteSend (one or more)
//	ByteEndTransfer
//
// Each START..END span is one bus transaction. Reset and timing requests go
// through an optional GpioHandler. Implementations for a given bus live in
// other packages, see package adapter for I²C.
//
// # Drawing
//
// Drawing happens in a local 1 bit framebuffer (image1bit.VerticalLSB from
// periph.io) that has the same page layout as the controller RAM:
//
//	d, _ := u8x8.New(transport, nil)
//	d.InitDisplay()
//	d.SetPowerSave(false)
//
//	d.ClearBuffer()
//	d.DrawLine(0, 0, 127, 63)
//	d.DrawBox(10, 10, 20, 20)
//	d.DrawStr(0, 10, "Hello World!")
//	d.SendBuffer()
//
// # Wire format
//
// Commands are sent as control byte 0x00 followed by the command bytes.
// Pixel data is sent as control byte 0x40 followed by at most Opts.ChunkSize
// data bytes per transaction, DefaultChunkSize (24) unless the transport
// buffer allows more.
// SendBuffer addresses each 8 pixel page with the page addressing mode
// commands before streaming it.
//
// # Differential updates
//
// With Opts.Differential set, SendBuffer only writes pages whose content
// differs from what the bus last acknowledged. A page whose transfer fails
// stays dirty and is written again on the next call.
package u8x8
