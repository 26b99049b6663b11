package entities

// FilterStats counts the lines seen by the output filter
type FilterStats struct {
	Read     int
	Written  int
	Excluded int
}

// PatchOutcome describes what the certificate patcher did
type PatchOutcome struct {
	Host       string
	BundlePath string
	// Patched is false when the host was already trusted
	Patched bool
	// SignatureChecked is true when the CA file signature was verified
	SignatureChecked bool
	ChecksumChecked  bool
	ProbeError       string
}
