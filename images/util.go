package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum of the mask pixels, used to verify
// that repeated conversions are pixel-identical.
//
// Arguments:
// - m: The mask to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	sum := images.Checksum(result.Labels)
//	fmt.Printf("label mask checksum: %s\n", sum)
//
// ```
func Checksum(m *Mask) string {
	if m == nil || m.mat.Empty() {
		return "empty"
	}

	data, _ := m.mat.DataPtrUint8()
	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
