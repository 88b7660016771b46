//go:build !windows

package diskspace

import "golang.org/x/sys/unix"

// availableBytes reports the space available to an unprivileged user on the
// filesystem holding dir.
func availableBytes(dir string) (int64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize), true
}
