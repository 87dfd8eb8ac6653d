package qnx6

import (
	"fmt"

	"github.com/jdw/goqnx6/binutil"
)

// maxIndirectLevels guards tree resolution against damaged level counters; real volumes never need more
// than three levels of indirection.
const maxIndirectLevels = 4

// ResolveBlock walks an indirect block tree to find the physical block holding logical block index. ptrs is
// the tree's root pointer list (an inode's 16 block pointers or a root node's 8) and levels is how many
// levels of indirection every pointer leads through. Zero pointers are holes at their literal position, at
// every level: a hole or an index beyond the tree resolves to block number 0 with no error, which callers
// treat as "no data". A pointer leading outside the filesystem is ErrCorruptTree.
func (fs *FS) ResolveBlock(ptrs []uint32, levels uint8, index uint32) (uint32, error) {
	if levels == 0 {
		if int64(index) >= int64(len(ptrs)) {
			return 0, nil
		}
		ptr := ptrs[index]
		if ptr == 0 {
			return 0, nil
		}
		if err := fs.checkBlockNumber(ptr); err != nil {
			return 0, err
		}
		return ptr, nil
	}
	if levels > maxIndirectLevels {
		return 0, fmt.Errorf("%w: indirection level %d too deep", ErrCorruptTree, levels)
	}

	// Every pointer at this level covers ptrsPerBlock^levels logical blocks.
	ptrsPerBlock := uint64(fs.sb.BlockSize / 4)
	span := uint64(1)
	for i := uint8(0); i < levels; i++ {
		span *= ptrsPerBlock
	}

	slot := uint64(index) / span
	if slot >= uint64(len(ptrs)) {
		return 0, nil
	}
	ptr := ptrs[slot]
	if ptr == 0 {
		return 0, nil
	}

	indirect, err := fs.readBlockChecked(ptr)
	if err != nil {
		return 0, err
	}
	next := binutil.NewReader(indirect).Uint32s(0, int(ptrsPerBlock))
	return fs.ResolveBlock(next, levels-1, uint32(uint64(index)%span))
}

// checkBlockNumber validates that a block number from an indirect tree stays inside both the filesystem's
// reported block count and the partition itself.
func (fs *FS) checkBlockNumber(blockNo uint32) error {
	if blockNo >= fs.sb.NumBlocks {
		return fmt.Errorf("%w: block %d outside filesystem (%d blocks)", ErrCorruptTree, blockNo, fs.sb.NumBlocks)
	}
	end := int64(blockNo)*int64(fs.sb.BlockSize) + int64(fs.sb.BlockSize)
	if end > fs.dev.Size() {
		return fmt.Errorf("%w: block %d past end of partition", ErrCorruptTree, blockNo)
	}
	return nil
}

func (fs *FS) readBlockChecked(blockNo uint32) ([]byte, error) {
	if err := fs.checkBlockNumber(blockNo); err != nil {
		return nil, err
	}
	data, err := fs.dev.ReadBlock(blockNo, fs.sb.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	return data, nil
}
