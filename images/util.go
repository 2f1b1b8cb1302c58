package images

import (
	"crypto/md5"
	"fmt"
)

// ComputeChecksum generates a deterministic checksum of a pixel buffer. The
// viewer uses it to verify that the source image survives every redraw
// untouched.
//
// Example:
//
//	before := ComputeChecksum(src.Data)
//	_, _ = kernels.ApplyFilter(src.Data, src.Width, src.Height, params, k)
//	if ComputeChecksum(src.Data) != before { ... }
func ComputeChecksum(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}

	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
