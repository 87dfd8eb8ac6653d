package qnx6_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdw/goqnx6/disk"
	"github.com/jdw/goqnx6/qnx6"
)

const (
	testBlockSize = 1024
	testBlocks    = 64
	testInodes    = 16

	superOffset = 0x2000

	// Fixed block layout of the synthetic volume.
	inodeTableBlock1 = 16
	inodeTableBlock2 = 17
	rootDirBlock     = 20
	dataDirBlock     = 21
	logsDirBlock     = 22
	readmeBlock      = 23
	trackBlock1      = 24
	trackBlock2      = 25
	alogBlock        = 26
	longNamedBlock   = 27
	longNameBlock    = 28
	indirectBlock    = 29
	bigBlock1        = 30
	bigBlock2        = 31
)

const longName = "position_history_backup_2021_full.dat"

// buildTestVolume constructs a synthetic QNX6 volume (block size 1024, 64 blocks, 16 inodes):
//
//	/
//	    data/
//	        track.bin   inode 6, 1500 bytes over two direct blocks
//	        big.bin     inode 10, 2048 bytes through one level of indirection
//	        a.log       inode 7 again (same content under a colliding name)
//	    logs/
//	        a.log       inode 7, "AAAA"
//	        b.log       inode 8, empty
//	        position_history_backup_2021_full.dat   inode 9, long-filename entry
//	    readme.txt      inode 4, "hello qnx6"
//
// Inode 11 has a block pointer outside the filesystem and inode 13 has an interior hole; neither is
// reachable from the tree.
func buildTestVolume() []byte {
	buf := make([]byte, testBlocks*testBlockSize)

	writeSuperblockAt(buf, superOffset)

	// Root directory, inode 1.
	writeDirEntry(buf, rootDirBlock, 0, 1, ".")
	writeDirEntry(buf, rootDirBlock, 1, 1, "..")
	writeDirEntry(buf, rootDirBlock, 2, 3, "data")
	writeDirEntry(buf, rootDirBlock, 3, 4, "readme.txt")
	writeDirEntry(buf, rootDirBlock, 4, 5, "logs")
	writeInode(buf, 1, 5*32, 0x41ED, 0, rootDirBlock)

	// data/, inode 3; slot 2 is an unused (zero-inode) slot.
	writeDirEntry(buf, dataDirBlock, 0, 3, ".")
	writeDirEntry(buf, dataDirBlock, 1, 1, "..")
	writeDirEntry(buf, dataDirBlock, 3, 6, "track.bin")
	writeDirEntry(buf, dataDirBlock, 4, 10, "big.bin")
	writeDirEntry(buf, dataDirBlock, 5, 7, "a.log")
	writeInode(buf, 3, 6*32, 0x41ED, 0, dataDirBlock)

	// logs/, inode 5; the third entry uses the long-filename overflow area.
	writeDirEntry(buf, logsDirBlock, 0, 7, "a.log")
	writeDirEntry(buf, logsDirBlock, 1, 8, "b.log")
	writeLongDirEntry(buf, logsDirBlock, 2, 9, 0)
	writeInode(buf, 5, 3*32, 0x41ED, 0, logsDirBlock)

	// readme.txt, inode 4.
	copy(buf[readmeBlock*testBlockSize:], "hello qnx6")
	writeInode(buf, 4, 10, 0x81A4, 0, readmeBlock)

	// track.bin, inode 6: 1500 bytes spanning two direct blocks.
	fillBlock(buf, trackBlock1, 0x11)
	fillBlock(buf, trackBlock2, 0x22)
	writeInode(buf, 6, 1500, 0x81A4, 0, trackBlock1, trackBlock2)

	// a.log, inode 7.
	copy(buf[alogBlock*testBlockSize:], "AAAA")
	writeInode(buf, 7, 4, 0x81A4, 0, alogBlock)

	// b.log, inode 8: empty.
	writeInode(buf, 8, 0, 0x81A4, 0)

	// Long-named file, inode 9; its name lives in the longfile area at index 0.
	copy(buf[longNamedBlock*testBlockSize:], "gpsdata!")
	writeInode(buf, 9, 8, 0x81A4, 0, longNamedBlock)
	binary.LittleEndian.PutUint16(buf[longNameBlock*testBlockSize:], uint16(len(longName)))
	copy(buf[longNameBlock*testBlockSize+2:], longName)

	// big.bin, inode 10: one level of indirection over two data blocks.
	binary.LittleEndian.PutUint32(buf[indirectBlock*testBlockSize:], bigBlock1)
	binary.LittleEndian.PutUint32(buf[indirectBlock*testBlockSize+4:], bigBlock2)
	fillBlock(buf, bigBlock1, 0x33)
	fillBlock(buf, bigBlock2, 0x44)
	writeInode(buf, 10, 2048, 0x81A4, 1, indirectBlock)

	// inode 11: block pointer outside the filesystem.
	writeInode(buf, 11, 100, 0x81A4, 0, 200)

	// inode 13: interior hole.
	writeInode(buf, 13, 3000, 0x81A4, 0, trackBlock1, 0, trackBlock2)

	return buf
}

func writeSuperblockAt(buf []byte, offset int) {
	binary.LittleEndian.PutUint32(buf[offset:], qnx6.Magic)
	binary.LittleEndian.PutUint32(buf[offset+48:], testBlockSize)
	binary.LittleEndian.PutUint32(buf[offset+52:], testInodes)
	binary.LittleEndian.PutUint32(buf[offset+60:], testBlocks)

	// Inode tree root node: two direct inode table blocks.
	binary.LittleEndian.PutUint64(buf[offset+72:], testInodes*qnx6.InodeSize)
	binary.LittleEndian.PutUint32(buf[offset+72+8:], inodeTableBlock1)
	binary.LittleEndian.PutUint32(buf[offset+72+12:], inodeTableBlock2)

	// Long-filename root node: one direct block of name records.
	binary.LittleEndian.PutUint64(buf[offset+184:], testBlockSize)
	binary.LittleEndian.PutUint32(buf[offset+184+8:], longNameBlock)
}

func writeInode(buf []byte, number uint32, size uint64, mode uint16, levels byte, blocks ...uint32) {
	off := (inodeTableBlock1+int(number)/8)*testBlockSize + int(number)%8*qnx6.InodeSize
	binary.LittleEndian.PutUint64(buf[off:], size)
	binary.LittleEndian.PutUint32(buf[off+20:], 1600000000+number) // mtime
	binary.LittleEndian.PutUint16(buf[off+32:], mode)
	for i, b := range blocks {
		binary.LittleEndian.PutUint32(buf[off+40+i*4:], b)
	}
	buf[off+104] = levels
}

func writeDirEntry(buf []byte, block int, slot int, inode uint32, name string) {
	off := block*testBlockSize + slot*32
	binary.LittleEndian.PutUint32(buf[off:], inode)
	buf[off+4] = byte(len(name))
	copy(buf[off+5:], name)
}

func writeLongDirEntry(buf []byte, block int, slot int, inode uint32, longIndex uint32) {
	off := block*testBlockSize + slot*32
	binary.LittleEndian.PutUint32(buf[off:], inode)
	buf[off+4] = 0xFF
	binary.LittleEndian.PutUint32(buf[off+8:], longIndex)
}

func fillBlock(buf []byte, block int, value byte) {
	for i := 0; i < testBlockSize; i++ {
		buf[block*testBlockSize+i] = value
	}
}

func testFS(t *testing.T) *qnx6.FS {
	return openVolume(t, buildTestVolume())
}

func openVolume(t *testing.T, buf []byte) *qnx6.FS {
	fs, err := qnx6.Open(disk.New(bytes.NewReader(buf), int64(len(buf))))
	require.Nilf(t, err, "unable to open test volume: %v", err)
	return fs
}
