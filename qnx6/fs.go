package qnx6

import (
	"fmt"
	"io/ioutil"

	"github.com/jdw/goqnx6/disk"
	"github.com/jdw/goqnx6/fragment"
)

// FS is one read-only parsing session over a QNX6 filesystem. It owns an inode cache keyed by inode number;
// the cache is never invalidated since the underlying image is a static snapshot. An FS is not safe for
// concurrent use; independent sessions over the same image are.
type FS struct {
	dev    *disk.Device
	sb     Superblock
	inodes map[uint32]Inode
}

// Open locates the superblock on the partition window dev and starts a parsing session. It returns
// ErrSuperblockNotFound when the partition does not hold a QNX6 filesystem.
func Open(dev *disk.Device) (*FS, error) {
	sb, err := FindSuperblock(dev)
	if err != nil {
		return nil, err
	}
	return &FS{dev: dev, sb: sb, inodes: make(map[uint32]Inode)}, nil
}

// Superblock returns the parsed superblock of the session.
func (fs *FS) Superblock() Superblock {
	return fs.sb
}

// BlockSize returns the filesystem block size in bytes.
func (fs *FS) BlockSize() uint32 {
	return fs.sb.BlockSize
}

// ReadBlock reads one raw filesystem block, for diagnostics.
func (fs *FS) ReadBlock(blockNo uint32) ([]byte, error) {
	return fs.readBlockChecked(blockNo)
}

// ReadInode reads the inode with the given 0-based number through the superblock's inode tree, caching it
// for the rest of the session.
func (fs *FS) ReadInode(number uint32) (Inode, error) {
	if ino, ok := fs.inodes[number]; ok {
		return ino, nil
	}
	if number >= fs.sb.NumInodes {
		return Inode{}, fmt.Errorf("%w: inode %d of %d", ErrInodeNotFound, number, fs.sb.NumInodes)
	}

	byteOffset := uint64(number) * InodeSize
	blockIndex := uint32(byteOffset / uint64(fs.sb.BlockSize))
	within := int(byteOffset % uint64(fs.sb.BlockSize))

	blockNo, err := fs.ResolveBlock(fs.sb.Root.Blocks[:], fs.sb.Root.Levels, blockIndex)
	if err != nil {
		return Inode{}, fmt.Errorf("unable to resolve inode %d: %w", number, err)
	}
	if blockNo == 0 {
		return Inode{}, fmt.Errorf("%w: inode %d block absent", ErrInodeNotFound, number)
	}
	block, err := fs.readBlockChecked(blockNo)
	if err != nil {
		return Inode{}, fmt.Errorf("unable to read inode %d: %w", number, err)
	}

	ino, err := ParseInode(block[within : within+InodeSize])
	if err != nil {
		return Inode{}, fmt.Errorf("unable to parse inode %d: %w", number, err)
	}
	fs.inodes[number] = ino
	return ino, nil
}

// RootInode returns the number and inode of the filesystem root directory, probing the candidate numbers
// 1, 2 and 0 in that order.
func (fs *FS) RootInode() (uint32, Inode, error) {
	for _, number := range []uint32{1, 2, 0} {
		ino, err := fs.ReadInode(number)
		if err == nil && ino.IsDir() {
			return number, ino, nil
		}
	}
	return 0, Inode{}, fmt.Errorf("%w: no root directory at inodes 1, 2 or 0", ErrInodeNotFound)
}

// FileFragments resolves an inode's data into byte ranges of the partition, one logical block at a time,
// coalescing adjacent blocks. A hole ends the list there: in-image holes are not expected for the files this
// reader targets, so a missing block truncates the content rather than reading on past it.
func (fs *FS) FileFragments(ino Inode) ([]fragment.Fragment, error) {
	blockSize := uint64(fs.sb.BlockSize)
	blocksNeeded := (ino.Size + blockSize - 1) / blockSize

	fragments := make([]fragment.Fragment, 0, blocksNeeded)
	for i := uint64(0); i < blocksNeeded; i++ {
		blockNo, err := fs.ResolveBlock(ino.Blocks[:], ino.Levels, uint32(i))
		if err != nil {
			return nil, err
		}
		if blockNo == 0 {
			break
		}
		fragments = append(fragments, fragment.Fragment{
			Offset: int64(blockNo) * int64(blockSize),
			Length: int64(blockSize),
		})
	}
	return fragment.Coalesce(fragments), nil
}

// ReadFileData reconstructs the full content of a file or directory inode, truncated to its reported size.
func (fs *FS) ReadFileData(ino Inode) ([]byte, error) {
	if ino.Size == 0 {
		return []byte{}, nil
	}
	fragments, err := fs.FileFragments(ino)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(fragment.NewReader(fs.dev.ReaderAt(), fragments))
	if err != nil {
		return nil, fmt.Errorf("unable to read file content: %w", err)
	}
	if uint64(len(data)) > ino.Size {
		data = data[:ino.Size]
	}
	return data, nil
}
