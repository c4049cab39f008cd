package machine

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestMemoryRegionWriteAt(t *testing.T) {
	m := NewMemoryRegion(16)

	n, err := m.WriteAt([]byte{0xAA, 0xBB, 0xCC}, 4)
	if err != nil || n != 3 {
		t.Fatalf("WriteAt = %d, %v", n, err)
	}
	v, err := m.Read(4, 2)
	if err != nil || v != 0xBBAA {
		t.Errorf("read back = %#x, %v, want 0xBBAA", v, err)
	}

	// A write running past the end is truncated and reported short.
	n, err = m.WriteAt(make([]byte, 8), 12)
	if !errors.Is(err, io.ErrShortWrite) || n != 4 {
		t.Errorf("past-end WriteAt = %d, %v, want 4/short write", n, err)
	}

	if _, err := m.WriteAt([]byte{1}, 17); err == nil {
		t.Error("out-of-range offset accepted")
	}
	if _, err := m.WriteAt([]byte{1}, -1); err == nil {
		t.Error("negative offset accepted")
	}
}

func TestLoadBytes(t *testing.T) {
	bus := NewBus(64)

	if err := bus.LoadBytes(8, []byte{0x34, 0x12}); err != nil {
		t.Fatal(err)
	}
	v, err := bus.Read(8, 2)
	if err != nil || v != 0x1234 {
		t.Errorf("ram = %#x, %v, want 0x1234", v, err)
	}

	// Outside RAM with no device mapped.
	if err := bus.LoadBytes(0x1000, []byte{1}); err == nil {
		t.Error("load into unmapped space succeeded")
	}

	// Outside RAM but behind a device goes through the device path.
	var out bytes.Buffer
	bus.AddDevice(DefaultConsoleBase, NewConsole(&out))
	if err := bus.LoadBytes(DefaultConsoleBase+ConsoleRegTX, []byte{'A'}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "A" {
		t.Errorf("console output = %q, want %q", out.String(), "A")
	}
}
