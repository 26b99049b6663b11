package entities

import "strings"

// LookupStatus distinguishes a found asset folder from a missing one
type LookupStatus int

const (
	// LookupFound means Path holds the asset folder
	LookupFound LookupStatus = iota
	// LookupNotFound means the remote API has no asset folder for the ID
	LookupNotFound
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// FolderLookup is the outcome of an asset folder lookup. Hard failures are
// reported through the accompanying error instead.
type FolderLookup struct {
	Status LookupStatus
	ID     string
	Path   string
}

// Found reports whether the lookup produced a path
func (l FolderLookup) Found() bool {
	return l.Status == LookupFound
}

// RemoveLastPart drops the final segment of a slash-separated path,
// ignoring a single trailing slash: /a/b/c/ becomes /a/b.
func RemoveLastPart(path string) string {
	path = strings.TrimSuffix(path, "/")

	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}
