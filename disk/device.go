/*
	Package disk provides bounds-checked random access to a raw disk image. Every structure reader in this
	module funnels its I/O through a Device: "read N bytes at absolute offset" plus the sector and block
	convenience variants built on it.
*/
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// SectorSize is the fixed sector size used for MBR/EBR geometry.
const SectorSize = 512

// ErrOutOfBounds is returned when a read would start or end outside the device.
var ErrOutOfBounds = errors.New("read out of device bounds")

// Device is a random-access byte source over a disk image (or a window into one). It never writes. A Device
// built on an io.ReaderAt has no shared seek position, so independent readers over the same image are safe;
// a single Device value itself should not be shared between goroutines without external synchronization.
type Device struct {
	r    io.ReaderAt
	base int64
	size int64
}

// Open opens the disk image file at path read-only. The caller should Close the returned device when done.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open image %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to stat image %s: %w", path, err)
	}
	return &Device{r: f, size: info.Size()}, nil
}

// New creates a Device over r, which must expose size readable bytes.
func New(r io.ReaderAt, size int64) *Device {
	return &Device{r: r, size: size}
}

// Size returns the number of readable bytes in the device.
func (d *Device) Size() int64 {
	return d.size
}

// Close closes the underlying reader if it is closeable. Devices over plain byte readers return nil.
func (d *Device) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadAt reads exactly length bytes starting at the absolute offset. Reads outside the device bounds fail
// with ErrOutOfBounds before any I/O happens.
func (d *Device) ReadAt(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+int64(length) > d.size {
		return nil, fmt.Errorf("%w: offset %d length %d (device size %d)", ErrOutOfBounds, offset, length, d.size)
	}
	buf := make([]byte, length)
	if _, err := d.r.ReadAt(buf, d.base+offset); err != nil {
		return nil, fmt.Errorf("unable to read %d bytes at offset %d: %w", length, offset, err)
	}
	return buf, nil
}

// ReadSector reads the 512-byte sector at the given LBA.
func (d *Device) ReadSector(lba uint64) ([]byte, error) {
	return d.ReadAt(int64(lba)*SectorSize, SectorSize)
}

// ReadBlock reads logical block blockNo of the given block size.
func (d *Device) ReadBlock(blockNo uint32, blockSize uint32) ([]byte, error) {
	return d.ReadAt(int64(blockNo)*int64(blockSize), int(blockSize))
}

// Window returns a view of size bytes of this device starting at offset, sharing the underlying reader.
// Offsets on the returned device are relative to the window start; this is how a partition is handed to a
// filesystem reader. A window reaching past the end of the device is clipped to it.
func (d *Device) Window(offset int64, size int64) *Device {
	if offset > d.size {
		offset = d.size
	}
	if offset+size > d.size {
		size = d.size - offset
	}
	return &Device{r: d.r, base: d.base + offset, size: size}
}

// ReaderAt exposes the window as an io.ReaderAt whose offset 0 is the window start, for use with streaming
// readers such as fragment.Reader.
func (d *Device) ReaderAt() io.ReaderAt {
	return io.NewSectionReader(d.r, d.base, d.size)
}
