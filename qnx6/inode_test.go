package qnx6_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdw/goqnx6/qnx6"
)

func TestParseInode(t *testing.T) {
	data := make([]byte, qnx6.InodeSize)
	binary.LittleEndian.PutUint64(data[0:], 123456)
	binary.LittleEndian.PutUint32(data[8:], 1000)
	binary.LittleEndian.PutUint32(data[12:], 1001)
	binary.LittleEndian.PutUint32(data[16:], 1600000001)
	binary.LittleEndian.PutUint32(data[20:], 1600000002)
	binary.LittleEndian.PutUint32(data[24:], 1600000003)
	binary.LittleEndian.PutUint32(data[28:], 1600000004)
	binary.LittleEndian.PutUint16(data[32:], 0x81A4)
	binary.LittleEndian.PutUint32(data[40:], 7)
	binary.LittleEndian.PutUint32(data[40+15*4:], 15)
	data[104] = 2
	data[105] = 1

	ino, err := qnx6.ParseInode(data)
	require.Nilf(t, err, "could not parse inode: %v", err)

	assert.Equal(t, uint64(123456), ino.Size)
	assert.Equal(t, uint32(1000), ino.UID)
	assert.Equal(t, uint32(1001), ino.GID)
	assert.Equal(t, uint32(1600000001), ino.FTime)
	assert.Equal(t, uint32(1600000002), ino.MTime)
	assert.Equal(t, uint32(1600000003), ino.ATime)
	assert.Equal(t, uint32(1600000004), ino.CTime)
	assert.Equal(t, uint16(0x81A4), ino.Mode)
	assert.Equal(t, uint32(7), ino.Blocks[0])
	assert.Equal(t, uint32(15), ino.Blocks[15])
	assert.Equal(t, uint8(2), ino.Levels)
	assert.Equal(t, uint8(1), ino.Status)

	assert.Equal(t, qnx6.TypeRegular, ino.Type())
	assert.False(t, ino.IsDir())
	assert.Equal(t, time.Unix(1600000002, 0).UTC(), ino.ModTime())
}

func TestParseInodeTooShort(t *testing.T) {
	_, err := qnx6.ParseInode(make([]byte, 64))
	assert.NotNil(t, err)
}

func TestFileTypes(t *testing.T) {
	cases := []struct {
		mode     uint16
		expected qnx6.FileType
		name     string
	}{
		{0x1180, qnx6.TypeFIFO, "fifo"},
		{0x21B6, qnx6.TypeCharDevice, "chardev"},
		{0x41ED, qnx6.TypeDirectory, "dir"},
		{0x61B6, qnx6.TypeBlockDevice, "blockdev"},
		{0x81A4, qnx6.TypeRegular, "file"},
		{0xA1FF, qnx6.TypeSymlink, "symlink"},
		{0xC1B6, qnx6.TypeSocket, "socket"},
	}
	for _, c := range cases {
		ino := qnx6.Inode{Mode: c.mode}
		assert.Equal(t, c.expected, ino.Type())
		assert.Equal(t, c.name, ino.Type().String())
	}
}

func TestFileTypeUnknown(t *testing.T) {
	ino := qnx6.Inode{Mode: 0xE123}
	assert.Equal(t, "unknown", ino.Type().String())
}
