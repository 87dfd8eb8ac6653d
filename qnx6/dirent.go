package qnx6

import (
	"fmt"

	"github.com/jdw/goqnx6/binutil"
)

const (
	// DirEntrySize is the fixed on-disk size of a directory entry.
	DirEntrySize = 32

	// maxShortName is the longest name stored inline in a directory entry; longer names live in the
	// long-filename overflow area and are referenced by index.
	maxShortName = 27

	// maxLongName caps a long-filename record (2-byte length plus up to 510 name bytes).
	maxLongName = 510
)

// A DirEntry names one child of a directory. Type is resolved from the child inode when it is readable and
// is the zero FileType otherwise.
type DirEntry struct {
	Inode uint32
	Name  string
	Type  FileType
}

// ReadDirectory parses the content of a directory inode into its entries, in on-disk order. Slots with
// inode number 0 are unused and skipped, as are the "." and ".." entries. Entries whose name cannot be
// resolved are dropped rather than failing the whole directory.
func (fs *FS) ReadDirectory(ino Inode) ([]DirEntry, error) {
	if !ino.IsDir() {
		return nil, fmt.Errorf("%w: inode type is %s", ErrNotADirectory, ino.Type())
	}
	data, err := fs.ReadFileData(ino)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory content: %w", err)
	}

	entries := make([]DirEntry, 0)
	for offset := 0; offset+DirEntrySize <= len(data); offset += DirEntrySize {
		r := binutil.NewReader(data[offset : offset+DirEntrySize])
		number := r.Uint32(0)
		if number == 0 {
			continue
		}

		nameLen := int(r.Byte(4))
		if nameLen == 0 {
			continue
		}
		var name string
		if nameLen <= maxShortName {
			name = string(r.Read(5, nameLen))
		} else {
			// Long-filename entry: the overflow area index lives at offset 8.
			name, err = fs.readLongName(r.Uint32(8))
			if err != nil {
				continue
			}
		}
		if name == "." || name == ".." {
			continue
		}

		entry := DirEntry{Inode: number, Name: name}
		if child, err := fs.ReadInode(number); err == nil {
			entry.Type = child.Type()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// readLongName fetches a name from the long-filename overflow area: the indexed block holds a 2-byte length
// followed by the name bytes.
func (fs *FS) readLongName(index uint32) (string, error) {
	blockNo, err := fs.ResolveBlock(fs.sb.LongFile.Blocks[:], fs.sb.LongFile.Levels, index)
	if err != nil {
		return "", err
	}
	if blockNo == 0 {
		return "", fmt.Errorf("%w: long filename block %d absent", ErrCorruptTree, index)
	}
	block, err := fs.readBlockChecked(blockNo)
	if err != nil {
		return "", err
	}

	length := int(binutil.NewReader(block).Uint16(0))
	if length == 0 {
		return "", fmt.Errorf("%w: empty long filename at block %d", ErrCorruptTree, blockNo)
	}
	if length > maxLongName {
		length = maxLongName
	}
	if length > len(block)-2 {
		length = len(block) - 2
	}
	return string(block[2 : 2+length]), nil
}
