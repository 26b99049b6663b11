package entities

// ExclusionList is the ordered list of path prefixes to keep out of an upload.
// It is not deduplicated.
type ExclusionList []string
