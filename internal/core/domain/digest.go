package domain

// Digest is a content fingerprint, rendered as 16 lowercase hex characters of
// an xxhash64 sum. The zero value means "not computed".
type Digest string

// IsZero reports whether the digest has not been computed.
func (d Digest) IsZero() bool {
	return d == ""
}

// String returns the hex form.
func (d Digest) String() string {
	return string(d)
}
