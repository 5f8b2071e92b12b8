package hdb

import "strings"

const (
	// IndexDirName is the reserved index subdirectory of an HDB root
	IndexDirName = "index"
	// HLTFileName is the reserved hash lookup table metadata file
	HLTFileName = "hlt.json"
	// BuildInfoFileName is the reserved build metadata file
	BuildInfoFileName = "BUILD_INFO.json"
)

// EntryClass is the classification of a direct child of an HDB root.
type EntryClass uint8

const (
	// EntryShard is a file holding fixed-size records
	EntryShard EntryClass = iota
	// EntryIndexDir is the reserved "index" subdirectory
	EntryIndexDir
	// EntryDir is any other subdirectory
	EntryDir
	// EntryMetadata is one of the reserved metadata files
	EntryMetadata
	// EntryExtension is a file whose name has an extension
	EntryExtension
)

// String returns a short name for the class
func (c EntryClass) String() string {
	switch c {
	case EntryShard:
		return "shard"
	case EntryIndexDir:
		return "index directory"
	case EntryDir:
		return "directory"
	case EntryMetadata:
		return "metadata file"
	case EntryExtension:
		return "file with extension"
	default:
		return "unknown"
	}
}

// Process reports whether entries of this class are read as shards.
func (c EntryClass) Process() bool {
	return c == EntryShard
}

// Classify decides what a directory entry is from its base name and whether
// it is a directory. It does not touch the filesystem.
func Classify(name string, isDir bool) EntryClass {
	if isDir {
		if name == IndexDirName {
			return EntryIndexDir
		}
		return EntryDir
	}

	if name == HLTFileName || name == BuildInfoFileName {
		return EntryMetadata
	}

	if hasExtension(name) {
		return EntryExtension
	}

	return EntryShard
}

// hasExtension treats a leading dot as part of the stem, so ".hidden" has no
// extension while "00.i" and "00." do.
func hasExtension(name string) bool {
	return strings.LastIndexByte(name, '.') > 0
}
