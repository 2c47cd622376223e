//go:build darwin

package cowclone

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// probe checks whether path lives on APFS, the only filesystem with a
// clonefile syscall on this platform.
func probe(path string) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false
	}
	return fstypename(&st) == "apfs"
}

func fstypename(st *unix.Statfs_t) string {
	b := make([]byte, 0, len(st.Fstypename))
	for _, c := range st.Fstypename {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}

// cloneTree clones src to dst via clonefile(2). Cloning a directory
// clones the whole hierarchy, sharing storage copy-on-write.
func cloneTree(src, dst string) error {
	if !probe(src) {
		return ErrUnsupported
	}
	if err := unix.Clonefile(src, dst, unix.CLONE_NOFOLLOW); err != nil {
		// EXDEV: destination parent lives on a different filesystem, so
		// there is nothing to share; callers fall back to a checkout.
		if err == unix.ENOTSUP || err == unix.EXDEV {
			return ErrUnsupported
		}
		return fmt.Errorf("clonefile %s -> %s: %w", src, dst, err)
	}
	return nil
}
