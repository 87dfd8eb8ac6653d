package qnx6

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	gopath "path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdw/goqnx6/fragment"
)

// ExtractOptions configures bulk extraction. Extensions are matched case-insensitively, with or without a
// leading dot; an empty list extracts every regular file. DirFilter, when set, prunes recursion into
// directories whose name it rejects; by default every directory is recursed into.
type ExtractOptions struct {
	Extensions []string
	OutputDir  string
	DirFilter  func(name string) bool
}

// An ExtractResult reports the outcome for one discovered file. A failed file carries its error message and
// never aborts the rest of the batch.
type ExtractResult struct {
	Path      string    `json:"path"`
	Size      uint64    `json:"size"`
	ModTime   time.Time `json:"mtime"`
	Extracted bool      `json:"extracted"`
	Error     string    `json:"error,omitempty"`
}

// Extract walks the tree pre-order and writes every regular file matching the configured extensions into
// the output directory, de-duplicating output filenames by suffixing a counter on collision. It returns one
// result per discovered file.
func (fs *FS) Extract(opts ExtractOptions) ([]ExtractResult, error) {
	rootNumber, _, err := fs.RootInode()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	wanted := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		wanted[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}

	taken := make(map[string]int)
	results := make([]ExtractResult, 0)
	fs.walk(rootNumber, opts.DirFilter, func(path string, e DirEntry) {
		if e.Type != TypeRegular {
			return
		}
		if len(wanted) > 0 {
			ext := strings.TrimPrefix(strings.ToLower(gopath.Ext(e.Name)), ".")
			if !wanted[ext] {
				return
			}
		}
		results = append(results, fs.extractOne(path, e, opts.OutputDir, taken))
	})
	return results, nil
}

func (fs *FS) extractOne(path string, e DirEntry, outputDir string, taken map[string]int) ExtractResult {
	result := ExtractResult{Path: path}

	ino, err := fs.ReadInode(e.Inode)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Size = ino.Size
	result.ModTime = ino.ModTime()

	data, err := fs.ReadFileData(ino)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	name := uniqueName(taken, e.Name)
	if err := ioutil.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Extracted = true
	return result
}

// ExtractFile writes the file at path verbatim to destination on the host filesystem, streaming the content
// fragment by fragment instead of buffering it.
func (fs *FS) ExtractFile(path string, destination string) error {
	number, err := fs.ResolvePath(path)
	if err != nil {
		return err
	}
	ino, err := fs.ReadInode(number)
	if err != nil {
		return err
	}
	if ino.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	fragments, err := fs.FileFragments(ino)
	if err != nil {
		return err
	}

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", destination, err)
	}
	content := io.LimitReader(fragment.NewReader(fs.dev.ReaderAt(), fragments), int64(ino.Size))
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		return fmt.Errorf("unable to write %s: %w", destination, err)
	}
	return out.Close()
}

// uniqueName reserves an output filename, suffixing "_1", "_2", ... before the extension when the plain
// name is already taken.
func uniqueName(taken map[string]int, name string) string {
	if _, exists := taken[name]; !exists {
		taken[name] = 1
		return name
	}
	ext := gopath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := taken[name]; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, exists := taken[candidate]; !exists {
			taken[name] = i + 1
			taken[candidate] = 1
			return candidate
		}
	}
}
