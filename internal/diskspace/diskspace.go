// Package diskspace preflights downloads: before any bytes move, the target
// filesystem must hold the expected size plus a safety margin.
package diskspace

import (
	"fmt"
	"path/filepath"
)

// InsufficientSpaceError reports a failed preflight check.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space for %s: need %.1f MiB, %.1f MiB available",
		e.Path,
		float64(e.RequiredBytes)/(1<<20),
		float64(e.AvailableBytes)/(1<<20))
}

// Check verifies that the filesystem holding targetPath can take
// requiredBytes scaled by safetyFactor. Filesystems that cannot be statted
// (network mounts, FUSE oddities) pass the check; the write will fail on
// its own if space runs out.
func Check(targetPath string, requiredBytes int64, safetyFactor float64) error {
	dir := filepath.Dir(targetPath)

	available, ok := availableBytes(dir)
	if !ok {
		return nil
	}

	required := int64(float64(requiredBytes) * safetyFactor)
	if available < required {
		return &InsufficientSpaceError{
			Path:           targetPath,
			RequiredBytes:  required,
			AvailableBytes: available,
		}
	}
	return nil
}

// Available returns the free bytes on the filesystem holding path, or 0
// when it cannot be determined.
func Available(path string) int64 {
	n, _ := availableBytes(filepath.Dir(path))
	return n
}
