package qnx6

import (
	"fmt"
	gopath "path"
	"strings"
	"time"
)

// MaxWalkDepth is the deepest directory nesting any traversal follows. Deeper branches are abandoned, not
// the whole walk; directory entries are trusted only as far as their structural validity, so a malformed
// volume can present cyclic or absurdly deep trees.
const MaxWalkDepth = 10

// An Entry is one directory listing line: the on-disk entry combined with the child inode's metadata.
type Entry struct {
	Name    string
	Inode   uint32
	Type    FileType
	Size    uint64
	ModTime time.Time
}

// ResolvePath walks an absolute slash-separated path from the root directory to the inode number it names.
func (fs *FS) ResolvePath(path string) (uint32, error) {
	current, _, err := fs.RootInode()
	if err != nil {
		return 0, err
	}

	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return current, nil
	}
	components := strings.Split(trimmed, "/")
	if len(components) > MaxWalkDepth {
		return 0, fmt.Errorf("%w: path %s has %d components", ErrRecursionLimit, path, len(components))
	}

	for _, component := range components {
		ino, err := fs.ReadInode(current)
		if err != nil {
			return 0, err
		}
		entries, err := fs.ReadDirectory(ino)
		if err != nil {
			return 0, err
		}
		found := false
		for _, e := range entries {
			if e.Name == component {
				current = e.Inode
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %s (component %q)", ErrPathNotFound, path, component)
		}
	}
	return current, nil
}

// List returns the entries of the directory at path with their type, size and modification time resolved.
func (fs *FS) List(path string) ([]Entry, error) {
	number, err := fs.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	return fs.ListInode(number)
}

// ListInode lists a directory by inode number, in on-disk entry order.
func (fs *FS) ListInode(number uint32) ([]Entry, error) {
	ino, err := fs.ReadInode(number)
	if err != nil {
		return nil, err
	}
	dirEntries, err := fs.ReadDirectory(ino)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entry := Entry{Name: e.Name, Inode: e.Inode, Type: e.Type}
		if child, err := fs.ReadInode(e.Inode); err == nil {
			entry.Size = child.Size
			entry.ModTime = child.ModTime()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stat returns the metadata of the file or directory at path.
func (fs *FS) Stat(path string) (Entry, error) {
	number, err := fs.ResolvePath(path)
	if err != nil {
		return Entry{}, err
	}
	ino, err := fs.ReadInode(number)
	if err != nil {
		return Entry{}, err
	}
	name := gopath.Base("/" + strings.Trim(path, "/"))
	return Entry{Name: name, Inode: number, Type: ino.Type(), Size: ino.Size, ModTime: ino.ModTime()}, nil
}

// ReadFile reconstructs the content of the file at path.
func (fs *FS) ReadFile(path string) ([]byte, error) {
	number, err := fs.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	ino, err := fs.ReadInode(number)
	if err != nil {
		return nil, err
	}
	if ino.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return fs.ReadFileData(ino)
}

// Find walks the whole tree pre-order and returns the absolute path of every entry whose name matches the
// glob-style pattern, each exactly once, in traversal order.
func (fs *FS) Find(pattern string) ([]string, error) {
	rootNumber, _, err := fs.RootInode()
	if err != nil {
		return nil, err
	}
	matches := make([]string, 0)
	fs.walk(rootNumber, nil, func(path string, e DirEntry) {
		if ok, _ := gopath.Match(pattern, e.Name); ok {
			matches = append(matches, path)
		}
	})
	return matches, nil
}

type walkFrame struct {
	inode uint32
	path  string
	depth int
}

// walk is a pre-order depth-first traversal over an explicit frame stack. Unreadable directories and
// branches past MaxWalkDepth are abandoned in place; siblings continue. dirFilter, when non-nil, prunes
// recursion into directories whose name it rejects (the visit of the directory entry itself still happens).
func (fs *FS) walk(rootNumber uint32, dirFilter func(name string) bool, visit func(path string, e DirEntry)) {
	stack := []walkFrame{{inode: rootNumber, path: "", depth: 0}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ino, err := fs.ReadInode(frame.inode)
		if err != nil {
			continue
		}
		entries, err := fs.ReadDirectory(ino)
		if err != nil {
			continue
		}

		descend := make([]walkFrame, 0)
		for _, e := range entries {
			childPath := frame.path + "/" + e.Name
			visit(childPath, e)
			if e.Type != TypeDirectory {
				continue
			}
			if frame.depth+1 > MaxWalkDepth {
				continue
			}
			if dirFilter != nil && !dirFilter(e.Name) {
				continue
			}
			descend = append(descend, walkFrame{inode: e.Inode, path: childPath, depth: frame.depth + 1})
		}
		// Push in reverse so the stack pops children in on-disk order.
		for i := len(descend) - 1; i >= 0; i-- {
			stack = append(stack, descend[i])
		}
	}
}
