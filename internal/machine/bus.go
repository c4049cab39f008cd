// Package machine assembles the emulated Alpha system: physical bus,
// console, CPUs and the run loop that drives dispatch and trap delivery.
package machine

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Physical memory layout
const (
	RAMBase            uint64 = 0x0000_0000
	DefaultConsoleBase uint64 = 0x1000_0000
)

var busEndian = binary.LittleEndian

// Device is a memory-mapped device on the physical bus.
type Device interface {
	// Read reads from the device at the given offset
	Read(offset uint64, size int) (uint64, error)
	// Write writes to the device at the given offset
	Write(offset uint64, size int, value uint64) error
	// Size returns the size of the device's address space
	Size() uint64
}

// MemoryRegion is a contiguous region of RAM.
type MemoryRegion struct {
	Data []byte
}

// NewMemoryRegion creates a memory region of the given size.
func NewMemoryRegion(size uint64) *MemoryRegion {
	return &MemoryRegion{Data: make([]byte, size)}
}

// Read implements Device
func (m *MemoryRegion) Read(offset uint64, size int) (uint64, error) {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return 0, fmt.Errorf("memory read out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}

	switch size {
	case 1:
		return uint64(m.Data[offset]), nil
	case 2:
		return uint64(busEndian.Uint16(m.Data[offset:])), nil
	case 4:
		return uint64(busEndian.Uint32(m.Data[offset:])), nil
	case 8:
		return busEndian.Uint64(m.Data[offset:]), nil
	default:
		return 0, fmt.Errorf("invalid read size: %d", size)
	}
}

// Write implements Device
func (m *MemoryRegion) Write(offset uint64, size int, value uint64) error {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return fmt.Errorf("memory write out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}

	switch size {
	case 1:
		m.Data[offset] = byte(value)
	case 2:
		busEndian.PutUint16(m.Data[offset:], uint16(value))
	case 4:
		busEndian.PutUint32(m.Data[offset:], uint32(value))
	case 8:
		busEndian.PutUint64(m.Data[offset:], value)
	default:
		return fmt.Errorf("invalid write size: %d", size)
	}
	return nil
}

// Size implements Device
func (m *MemoryRegion) Size() uint64 {
	return uint64(len(m.Data))
}

// WriteAt implements io.WriterAt, for bulk image loading.
func (m *MemoryRegion) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.Data)) {
		return 0, fmt.Errorf("write offset 0x%x out of bounds", off)
	}
	n := copy(m.Data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// DeviceMapping maps a device to an address range.
type DeviceMapping struct {
	Base   uint64
	Size   uint64
	Device Device
}

// Bus connects the CPUs to RAM and devices.
type Bus struct {
	RAM     *MemoryRegion
	RAMBase uint64
	Devices []DeviceMapping
}

// NewBus creates a bus with the given RAM size.
func NewBus(ramSize uint64) *Bus {
	return &Bus{
		RAM:     NewMemoryRegion(ramSize),
		RAMBase: RAMBase,
	}
}

// AddDevice adds a device mapping to the bus.
func (bus *Bus) AddDevice(base uint64, dev Device) {
	bus.Devices = append(bus.Devices, DeviceMapping{
		Base:   base,
		Size:   dev.Size(),
		Device: dev,
	})
}

// findDevice finds the device behind a physical address.
func (bus *Bus) findDevice(addr uint64) (Device, uint64, error) {
	// Fast path for RAM
	if addr >= bus.RAMBase && addr < bus.RAMBase+bus.RAM.Size() {
		return bus.RAM, addr - bus.RAMBase, nil
	}

	for _, mapping := range bus.Devices {
		if addr >= mapping.Base && addr < mapping.Base+mapping.Size {
			return mapping.Device, addr - mapping.Base, nil
		}
	}

	return nil, 0, fmt.Errorf("no device at address 0x%x", addr)
}

// Read reads from the bus.
func (bus *Bus) Read(addr uint64, size int) (uint64, error) {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(offset, size)
}

// Write writes to the bus.
func (bus *Bus) Write(addr uint64, size int, value uint64) error {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return err
	}
	return dev.Write(offset, size, value)
}

// Fetch reads one instruction word.
func (bus *Bus) Fetch(addr uint64) (uint32, error) {
	v, err := bus.Read(addr, 4)
	return uint32(v), err
}

// LoadBytes copies data into physical memory at the given address. Ranges
// entirely inside RAM go through the region's WriteAt; anything else is
// written bytewise through the device path.
func (bus *Bus) LoadBytes(addr uint64, data []byte) error {
	if addr >= bus.RAMBase && addr+uint64(len(data)) <= bus.RAMBase+bus.RAM.Size() {
		_, err := bus.RAM.WriteAt(data, int64(addr-bus.RAMBase))
		return err
	}

	for i, b := range data {
		if err := bus.Write(addr+uint64(i), 1, uint64(b)); err != nil {
			return err
		}
	}
	return nil
}
