package listing

import (
	"strings"
	"time"
)

// Entry types reported in Entry.Type.
const (
	TypeUnknown = "unknown"
	TypeFile    = "file"
	TypeDir     = "dir"
	TypeLink    = "link"
)

// Permission bits used in UnixPermissions.
const (
	PermRead    = 4
	PermWrite   = 2
	PermExecute = 1
)

// UnixPermissions holds the permission bitmasks of a Unix-style entry.
// Each field combines PermRead, PermWrite and PermExecute.
type UnixPermissions struct {
	User  int
	Group int
	World int
}

// String returns the permissions in octal notation, e.g. "755".
func (p UnixPermissions) String() string {
	return string([]byte{byte('0' + p.User), byte('0' + p.Group), byte('0' + p.World)})
}

// Entry represents one file or directory of a directory listing.
type Entry struct {
	// Name is the file or directory name
	Name string

	// Type is TypeFile, TypeDir, TypeLink or TypeUnknown
	Type string

	// Size is the size in bytes as reported by the server
	Size int64

	// RawModTime is the modification time exactly as the server sent it
	RawModTime string

	// ModTime is the parsed modification time; zero if it could not be parsed
	ModTime time.Time

	// Permissions is nil if the format carries no permission information
	Permissions *UnixPermissions

	// HardLinks is the hard link count (Unix listings only)
	HardLinks int

	// Link is the target of a symbolic link
	Link string

	User  string
	Group string

	// UniqueID identifies the underlying file across entries (MLSD "unique", EPLF "i")
	UniqueID string

	// Facts contains all raw MLSD facts, keyed by lower-case fact name
	Facts map[string]string

	// Raw is the listing line the entry was parsed from
	Raw string
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.Type == TypeDir }

// IsFile reports whether the entry is a regular file.
func (e *Entry) IsFile() bool { return e.Type == TypeFile }

// IsLink reports whether the entry is a symbolic link.
func (e *Entry) IsLink() bool { return e.Type == TypeLink }

// IsHidden reports whether the name starts with a dot.
func (e *Entry) IsHidden() bool { return strings.HasPrefix(e.Name, ".") }

func isDotEntry(name string) bool {
	return name == "." || name == ".."
}
