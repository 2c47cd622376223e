//go:build !darwin

package cowclone

// Copy-on-write directory clones are only wired up for APFS. Linux
// overlayfs/reflink support would land here.
func probe(string) bool { return false }

func cloneTree(string, string) error { return ErrUnsupported }
