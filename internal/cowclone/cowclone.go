// Package cowclone materializes copy-on-write clones of directory trees.
//
// On APFS the clone shares file and directory blocks with the source until
// either side writes, so cloning a multi-gigabyte worktree is near-instant.
// Everywhere else the package reports ErrUnsupported and callers fall back
// to a plain checkout.
package cowclone

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// ErrUnsupported is returned when the source filesystem cannot clone
// copy-on-write.
var ErrUnsupported = errors.New("copy-on-write not supported on this filesystem")

var (
	probeMu    sync.Mutex
	probeCache = map[string]bool{}
)

// Supported reports whether path sits on a filesystem that can clone
// copy-on-write. The probe result is cached per path for the lifetime
// of the process.
func Supported(path string) bool {
	probeMu.Lock()
	defer probeMu.Unlock()
	if v, ok := probeCache[path]; ok {
		return v
	}
	v := probe(path)
	probeCache[path] = v
	return v
}

// Clone clones the directory tree at src to dest using the native clone
// syscall. The operation is atomic at the destination root: the tree is
// cloned to a sibling temp path and renamed over, so either the full tree
// appears at dest or dest does not exist afterwards.
//
// Metadata (modes, timestamps, xattrs, symlinks) is preserved by the
// clone syscall. Returns ErrUnsupported when src's filesystem cannot
// clone; transient errors are not retried.
func Clone(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", src)
	}
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("destination %s already exists", dest)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	// Clone into a sibling temp path first so a crash or clone failure
	// never leaves a partial tree at dest.
	tmp := fmt.Sprintf("%s.warp-%s", dest, uuid.NewString()[:8])
	if err := cloneTree(src, tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("renaming clone into place: %w", err)
	}
	return nil
}
