package qnx6

import (
	"fmt"
	"time"

	"github.com/jdw/goqnx6/binutil"
)

const (
	// InodeSize is the fixed on-disk size of an inode record.
	InodeSize = 128

	// InodeBlockPointers is the number of direct block tree root pointers in an inode.
	InodeBlockPointers = 16
)

// An Inode holds the metadata of one file or directory plus the root of its own indirect block tree.
type Inode struct {
	Size   uint64
	UID    uint32
	GID    uint32
	FTime  uint32
	MTime  uint32
	ATime  uint32
	CTime  uint32
	Mode   uint16
	Blocks [InodeBlockPointers]uint32
	Levels uint8
	Status uint8
}

// FileType is the file type nibble of an inode's mode field (mode & 0xF000). Values other than the known
// constants can occur on foreign or damaged volumes; String() renders those as "unknown".
type FileType uint16

const (
	TypeFIFO        FileType = 0x1000
	TypeCharDevice  FileType = 0x2000
	TypeDirectory   FileType = 0x4000
	TypeBlockDevice FileType = 0x6000
	TypeRegular     FileType = 0x8000
	TypeSymlink     FileType = 0xA000
	TypeSocket      FileType = 0xC000
)

// String returns a short name for the file type, or "unknown" for any unrecognized value.
func (t FileType) String() string {
	switch t {
	case TypeFIFO:
		return "fifo"
	case TypeCharDevice:
		return "chardev"
	case TypeDirectory:
		return "dir"
	case TypeBlockDevice:
		return "blockdev"
	case TypeRegular:
		return "file"
	case TypeSymlink:
		return "symlink"
	case TypeSocket:
		return "socket"
	}
	return "unknown"
}

// Type returns the file type encoded in the inode's mode field.
func (i *Inode) Type() FileType {
	return FileType(i.Mode & 0xF000)
}

// IsDir reports whether the inode describes a directory.
func (i *Inode) IsDir() bool {
	return i.Type() == TypeDirectory
}

// ModTime returns the modification time as a time.Time.
func (i *Inode) ModTime() time.Time {
	return time.Unix(int64(i.MTime), 0).UTC()
}

// ParseInode decodes one 128-byte inode record.
func ParseInode(data []byte) (Inode, error) {
	if len(data) < InodeSize {
		return Inode{}, fmt.Errorf("inode data should be at least %d bytes but is %d", InodeSize, len(data))
	}
	r := binutil.NewReader(data)
	ino := Inode{
		Size:   r.Uint64(0),
		UID:    r.Uint32(8),
		GID:    r.Uint32(12),
		FTime:  r.Uint32(16),
		MTime:  r.Uint32(20),
		ATime:  r.Uint32(24),
		CTime:  r.Uint32(28),
		Mode:   r.Uint16(32),
		Levels: r.Byte(104),
		Status: r.Byte(105),
	}
	copy(ino.Blocks[:], r.Uint32s(40, InodeBlockPointers))
	return ino, nil
}
