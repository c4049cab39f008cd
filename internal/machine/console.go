package machine

import "io"

// Console register offsets
const (
	ConsoleRegTX     = 0x00 // transmit, write-only
	ConsoleRegStatus = 0x08 // status, read-only
	ConsoleSize      = 0x100
)

// Status bits
const (
	ConsoleStatusTxReady = 1 << 0
)

// Console is a minimal SRM-style output console. Stores to the transmit
// register go straight to the output writer; the transmitter is always
// ready.
type Console struct {
	Output io.Writer
}

// NewConsole creates a console writing to output.
func NewConsole(output io.Writer) *Console {
	return &Console{Output: output}
}

// Size implements Device
func (c *Console) Size() uint64 {
	return ConsoleSize
}

// Read implements Device
func (c *Console) Read(offset uint64, size int) (uint64, error) {
	if offset == ConsoleRegStatus {
		return ConsoleStatusTxReady, nil
	}
	return 0, nil
}

// Write implements Device
func (c *Console) Write(offset uint64, size int, value uint64) error {
	if offset == ConsoleRegTX && c.Output != nil {
		if _, err := c.Output.Write([]byte{byte(value)}); err != nil {
			return err
		}
	}
	return nil
}

var _ Device = (*Console)(nil)
