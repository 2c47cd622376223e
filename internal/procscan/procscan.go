// Package procscan enumerates and terminates processes rooted inside a
// directory subtree. Pure scans are read-only; signals are only ever sent
// through Terminate.
package procscan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// Process is one live process whose working directory lies inside the
// scanned subtree. Rebuilt on every scan.
type Process struct {
	PID        int32
	Name       string
	Command    string
	CWD        string
	CPUPercent float64
	RSSBytes   uint64
}

// Result is the outcome of one scan.
type Result struct {
	Processes []Process

	// Truncated is set when at least one process's working directory
	// could not be read (permissions, zombie). The scan may have missed
	// processes; callers should warn before trusting an empty result.
	Truncated bool
}

// Scan returns every process whose canonicalized working directory equals
// path or a descendant of it. The scanning process itself is excluded.
func Scan(path string) (Result, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	procs, err := process.Processes()
	if err != nil {
		return Result{}, err
	}

	self := int32(os.Getpid())
	var result Result
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		cwd, err := p.Cwd()
		if err != nil || cwd == "" {
			if err != nil {
				result.Truncated = true
			}
			continue
		}
		if !within(cwd, target) {
			continue
		}

		rec := Process{PID: p.Pid, CWD: cwd}
		if name, err := p.Name(); err == nil {
			rec.Name = name
		}
		if cmd, err := p.Cmdline(); err == nil {
			rec.Command = cmd
		}
		if cpu, err := p.CPUPercent(); err == nil {
			rec.CPUPercent = cpu
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			rec.RSSBytes = mem.RSS
		}
		result.Processes = append(result.Processes, rec)
	}

	// Most active first, matching how the records are presented.
	sort.Slice(result.Processes, func(i, j int) bool {
		return result.Processes[i].CPUPercent > result.Processes[j].CPUPercent
	})
	return result, nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Outcome is the per-pid result of a Terminate call.
type Outcome int

const (
	TerminatedGracefully Outcome = iota
	ForceKilled
	StillAlive
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case TerminatedGracefully:
		return "terminated"
	case ForceKilled:
		return "killed"
	case StillAlive:
		return "still alive"
	default:
		return "not found"
	}
}

// minGrace is the floor on the polite-termination window.
const minGrace = 500 * time.Millisecond

const pollInterval = 50 * time.Millisecond

// Terminate sends SIGTERM to each pid, polls for exit up to grace, and
// sends SIGKILL to any survivor. The grace window has a 500ms floor.
func Terminate(pids []int32, grace time.Duration) map[int32]Outcome {
	if grace < minGrace {
		grace = minGrace
	}

	outcomes := make(map[int32]Outcome, len(pids))
	pending := make(map[int32]bool, len(pids))

	for _, pid := range pids {
		if err := unix.Kill(int(pid), unix.SIGTERM); err != nil {
			outcomes[pid] = NotFound
			continue
		}
		pending[pid] = true
	}

	deadline := time.Now().Add(grace)
	for len(pending) > 0 && time.Now().Before(deadline) {
		for pid := range pending {
			if !alive(pid) {
				outcomes[pid] = TerminatedGracefully
				delete(pending, pid)
			}
		}
		if len(pending) > 0 {
			time.Sleep(pollInterval)
		}
	}

	for pid := range pending {
		if !alive(pid) {
			outcomes[pid] = TerminatedGracefully
			continue
		}
		if err := unix.Kill(int(pid), unix.SIGKILL); err != nil {
			outcomes[pid] = NotFound
			continue
		}
		// SIGKILL cannot be caught; give the kernel a beat to reap.
		time.Sleep(pollInterval)
		if alive(pid) {
			outcomes[pid] = StillAlive
		} else {
			outcomes[pid] = ForceKilled
		}
	}

	return outcomes
}

// alive probes pid with signal 0.
func alive(pid int32) bool {
	err := unix.Kill(int(pid), 0)
	return err == nil || err == unix.EPERM
}
