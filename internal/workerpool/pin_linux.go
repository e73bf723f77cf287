//go:build linux

package workerpool

import "golang.org/x/sys/unix"

// pinToCPU pins the calling OS thread to cpu via sched_setaffinity. The
// caller must already hold the OS thread via runtime.LockOSThread. Errors
// are ignored: a failed pin degrades performance, not correctness — CPU
// placement is a best-effort hint, not a guarantee.
func pinToCPU(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
