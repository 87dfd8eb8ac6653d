package qnx6

import "errors"

var (
	// ErrSuperblockNotFound is returned when neither candidate superblock location holds a valid QNX6
	// superblock. The partition may simply host a different filesystem.
	ErrSuperblockNotFound = errors.New("QNX6 superblock not found")

	// ErrInvalidBlockSize marks a superblock whose block size is not 1024, 2048 or 4096.
	ErrInvalidBlockSize = errors.New("invalid block size")

	// ErrInodeNotFound is returned when an inode number is outside the inode table or its slot cannot be
	// resolved.
	ErrInodeNotFound = errors.New("inode not found")

	// ErrNotADirectory is returned when directory content is requested from a non-directory inode.
	ErrNotADirectory = errors.New("not a directory")

	// ErrCorruptTree marks an indirect block pointer resolving outside the filesystem, as opposed to a zero
	// pointer which only signals absent data.
	ErrCorruptTree = errors.New("corrupt indirect block tree")

	// ErrPathNotFound is returned when a path component does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrRecursionLimit marks a traversal that went deeper than MaxWalkDepth; only the offending branch is
	// abandoned.
	ErrRecursionLimit = errors.New("directory recursion limit exceeded")
)
