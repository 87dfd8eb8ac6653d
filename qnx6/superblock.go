/*
	Package qnx6 provides read-only access to a QNX6 filesystem inside a disk image partition: superblock
	discovery, inode and directory parsing, indirect block tree resolution, and file content reconstruction.

	Basic usage

	Open a session over a partition window and navigate by path:
		fs, err := qnx6.Open(partitionDevice)
		entries, err := fs.List("/var/gps")
		data, err := fs.ReadFile("/var/gps/track.bin")
*/
package qnx6

import (
	"fmt"

	"github.com/jdw/goqnx6/binutil"
	"github.com/jdw/goqnx6/disk"
)

// Magic is the QNX6 superblock magic value, little-endian on disk.
const Magic = 0x68191122

// The superblock lives at one of two fixed offsets from the partition start, immediately after the boot and
// hidden headers.
var superblockOffsets = []int64{0x2000, 0x2000 + 0x200}

const (
	superblockSize = 512
	rootNodeSize   = 56

	// RootNodePointers is the number of block tree root pointers in a root node.
	RootNodePointers = 8
)

// A RootNode is the entry point into an indirect block tree: up to 8 tree root pointers, each leading
// through Levels levels of indirection before reaching data blocks. The superblock carries one for the
// inode table, the free-block bitmap, and the long-filename area.
type RootNode struct {
	Size   uint64
	Blocks [RootNodePointers]uint32
	Levels uint8
	Mode   uint8
}

// Superblock holds the filesystem-wide parameters of a QNX6 volume.
type Superblock struct {
	Magic      uint32
	Checksum   uint32
	Serial     uint64
	CTime      uint32
	ATime      uint32
	Flags      uint32
	Version1   uint16
	Version2   uint16
	VolumeID   [16]byte
	BlockSize  uint32
	NumInodes  uint32
	FreeInodes uint32
	NumBlocks  uint32
	FreeBlocks uint32
	AllocGroup uint32
	Root       RootNode
	Bitmap     RootNode
	LongFile   RootNode
	Unknown    RootNode
}

// VolumeLabel returns the NUL-trimmed volume identifier.
func (sb *Superblock) VolumeLabel() string {
	return binutil.CString(sb.VolumeID[:])
}

// ParseSuperblock decodes a superblock from data. It fails when the magic does not match or the block size
// is not one of the supported values; both cases make the caller fall through to the next candidate offset.
func ParseSuperblock(data []byte) (Superblock, error) {
	if len(data) < superblockSize {
		return Superblock{}, fmt.Errorf("superblock data should be at least %d bytes but is %d", superblockSize, len(data))
	}
	r := binutil.NewReader(data)
	if r.Uint32(0) != Magic {
		return Superblock{}, fmt.Errorf("%w: magic mismatch (got %#08x)", ErrSuperblockNotFound, r.Uint32(0))
	}

	sb := Superblock{
		Magic:      r.Uint32(0),
		Checksum:   r.Uint32(4),
		Serial:     r.Uint64(8),
		CTime:      r.Uint32(16),
		ATime:      r.Uint32(20),
		Flags:      r.Uint32(24),
		Version1:   r.Uint16(28),
		Version2:   r.Uint16(30),
		BlockSize:  r.Uint32(48),
		NumInodes:  r.Uint32(52),
		FreeInodes: r.Uint32(56),
		NumBlocks:  r.Uint32(60),
		FreeBlocks: r.Uint32(64),
		AllocGroup: r.Uint32(68),
		Root:       parseRootNode(r.Read(72, rootNodeSize)),
		Bitmap:     parseRootNode(r.Read(128, rootNodeSize)),
		LongFile:   parseRootNode(r.Read(184, rootNodeSize)),
		Unknown:    parseRootNode(r.Read(240, rootNodeSize)),
	}
	copy(sb.VolumeID[:], r.Read(32, 16))

	switch sb.BlockSize {
	case 1024, 2048, 4096:
	default:
		return Superblock{}, fmt.Errorf("%w: %d", ErrInvalidBlockSize, sb.BlockSize)
	}
	return sb, nil
}

// FindSuperblock tries the candidate superblock offsets of the partition in order and returns the first
// superblock with a matching magic and a valid block size. When both candidates fail it returns
// ErrSuperblockNotFound; the partition may use a different filesystem, so the caller can continue scanning.
func FindSuperblock(dev *disk.Device) (Superblock, error) {
	for _, offset := range superblockOffsets {
		data, err := dev.ReadAt(offset, superblockSize)
		if err != nil {
			continue
		}
		sb, err := ParseSuperblock(data)
		if err != nil {
			continue
		}
		return sb, nil
	}
	return Superblock{}, ErrSuperblockNotFound
}

func parseRootNode(b []byte) RootNode {
	r := binutil.NewReader(b)
	n := RootNode{
		Size:   r.Uint64(0),
		Levels: r.Byte(40),
		Mode:   r.Byte(41),
	}
	copy(n.Blocks[:], r.Uint32s(8, RootNodePointers))
	return n
}
