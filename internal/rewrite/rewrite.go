// Package rewrite replaces absolute path prefixes across a cloned worktree.
//
// A copy-on-write clone bit-copies absolute paths embedded in tool
// artifacts (virtualenv shebangs, build manifests, IDE state). The clone
// is instant but broken until those references point at the new location.
package rewrite

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/utils/binary"
	"golang.org/x/sync/errgroup"

	"github.com/Frank-III/git-warp/internal/util"
)

const (
	// sniffLen is how many leading bytes are examined for the binary heuristic.
	sniffLen = 8 * 1024

	// maxFileSize is the rewrite ceiling; larger files are skipped and counted
	// in Stats.FilesSkipped together with binary files. No separate warning
	// names them.
	maxFileSize = 16 << 20
)

// Stats summarizes a rewrite pass.
type Stats struct {
	FilesScanned   int
	FilesRewritten int
	FilesSkipped   int
	Errors         []FileError
}

// FileError records a per-file failure. Individual failures never abort
// the walk.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// Rewrite walks root and replaces occurrences of the literal byte sequence
// srcPrefix with destPrefix in every eligible file. The walk honors the
// repository's ignore stack (.gitignore files plus .git/info/exclude) and
// never descends into .git. Files are rewritten in parallel, each through
// a private temp file renamed over the original.
func Rewrite(root, srcPrefix, destPrefix string) (Stats, error) {
	root = filepath.Clean(root)

	matcher, err := loadIgnoreMatcher(root)
	if err != nil {
		return Stats{}, fmt.Errorf("loading ignore rules: %w", err)
	}

	var (
		mu    sync.Mutex
		stats Stats
	)
	record := func(f func(*Stats)) {
		mu.Lock()
		f(&stats)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			record(func(s *Stats) { s.Errors = append(s.Errors, FileError{path, err}) })
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Match(parts, false) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		g.Go(func() error {
			outcome, err := rewriteFile(path, []byte(srcPrefix), []byte(destPrefix))
			record(func(s *Stats) {
				switch {
				case err != nil:
					s.Errors = append(s.Errors, FileError{path, err})
				case outcome == outcomeSkipped:
					s.FilesSkipped++
				case outcome == outcomeRewritten:
					s.FilesScanned++
					s.FilesRewritten++
				default:
					s.FilesScanned++
				}
			})
			return nil
		})
		return nil
	})

	g.Wait()

	if walkErr != nil {
		return stats, fmt.Errorf("walking %s: %w", root, walkErr)
	}
	return stats, nil
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeRewritten
	outcomeSkipped
)

// rewriteFile reads one file whole into memory (at most maxFileSize bytes)
// and replaces every occurrence in a single pass; it does not stream.
// The original is only replaced when the content actually changes, so
// untouched files keep their mtime and CoW sharing.
func rewriteFile(path string, src, dest []byte) (outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return outcomeUnchanged, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return outcomeUnchanged, err
	}
	if info.Size() > maxFileSize {
		f.Close()
		return outcomeSkipped, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return outcomeUnchanged, err
	}
	if isBin, err := binary.IsBinary(bytes.NewReader(head[:n])); err != nil || isBin {
		f.Close()
		return outcomeSkipped, err
	}

	rest, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return outcomeUnchanged, err
	}
	content := append(head[:n], rest...)

	if !bytes.Contains(content, src) {
		return outcomeUnchanged, nil
	}
	replaced := bytes.ReplaceAll(content, src, dest)
	if bytes.Equal(replaced, content) {
		return outcomeUnchanged, nil
	}

	if err := util.AtomicReplaceFile(path, replaced); err != nil {
		return outcomeUnchanged, err
	}
	return outcomeRewritten, nil
}

// loadIgnoreMatcher builds the ignore matcher for root from its .gitignore
// stack and, when present, the repository's .git/info/exclude.
func loadIgnoreMatcher(root string) (gitignore.Matcher, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, readExcludeFile(root)...)
	return gitignore.NewMatcher(patterns), nil
}

// readExcludeFile parses .git/info/exclude. The clone carries the primary's
// full .git directory at rewrite time, so its excludes apply unchanged.
func readExcludeFile(root string) []gitignore.Pattern {
	data, err := os.ReadFile(filepath.Join(root, ".git", "info", "exclude"))
	if err != nil {
		return nil
	}
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}
