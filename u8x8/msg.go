package u8x8

import "fmt"

// ByteMsg is a byte-transfer message sent by the display driver to its
// transport.
type ByteMsg uint8

// Byte-transfer messages.
const (
	ByteInit          ByteMsg = 20 // Initialize the bus peripheral
	ByteSend          ByteMsg = 23 // Append arg bytes of payload to the current transfer
	ByteStartTransfer ByteMsg = 24 // Begin a transfer
	ByteEndTransfer   ByteMsg = 25 // Complete a transfer
	ByteSetDC         ByteMsg = 32 // Set the data/command line (unused on I²C)
)

func (m ByteMsg) String() string {
	switch m {
	case ByteInit:
		return "BYTE_INIT"
	case ByteSend:
		return "BYTE_SEND"
	case ByteStartTransfer:
		return "BYTE_START_TRANSFER"
	case ByteEndTransfer:
		return "BYTE_END_TRANSFER"
	case ByteSetDC:
		return "BYTE_SET_DC"
	}
	return fmt.Sprintf("ByteMsg(%d)", uint8(m))
}

// GpioMsg is a GPIO or delay message sent by the display driver.
type GpioMsg uint8

// GPIO and delay messages.
const (
	GpioAndDelayInit GpioMsg = 40
	DelayMilli       GpioMsg = 41 // Block for arg milliseconds
	Delay10Micro     GpioMsg = 42
	Delay100Nano     GpioMsg = 43
	DelayNano        GpioMsg = 44
	GpioReset        GpioMsg = 75 // Drive the reset line to arg
)

func (m GpioMsg) String() string {
	switch m {
	case GpioAndDelayInit:
		return "GPIO_AND_DELAY_INIT"
	case DelayMilli:
		return "DELAY_MILLI"
	case Delay10Micro:
		return "DELAY_10MICRO"
	case Delay100Nano:
		return "DELAY_100NANO"
	case DelayNano:
		return "DELAY_NANO"
	case GpioReset:
		return "GPIO_RESET"
	}
	return fmt.Sprintf("GpioMsg(%d)", uint8(m))
}

// ByteHandler moves bytes to the display.
//
// For ByteSend, arg is the number of payload bytes to take. All other
// messages carry no payload. A nil error is the success signal.
type ByteHandler interface {
	HandleByte(msg ByteMsg, arg uint8, payload []byte) error
}

// GpioHandler drives control lines and implements delays.
type GpioHandler interface {
	HandleGpio(msg GpioMsg, arg uint8) error
}

// Handler is a transport implementing both contracts.
type Handler interface {
	ByteHandler
	GpioHandler
}
