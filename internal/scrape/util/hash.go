package util

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// Fingerprint computes the dedup hash over a source's stable field subset
// (typically title+company+origin-id). It must stay deterministic across
// processes: cross-run novelty detection depends on it.
func Fingerprint(parts ...string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(parts, ""))))
}

// JobID builds the per-origin identity "<source>_<native id>".
func JobID(source, nativeID string) string {
	return source + "_" + strings.TrimSpace(nativeID)
}

// FallbackJobID derives an id for origins with no stable native id,
// from a short prefix of the content hash.
func FallbackJobID(source, title, company, url string) string {
	return source + "_" + Fingerprint(title, company, url)[:12]
}
