//go:build linux

package book

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedParam mirrors the C struct sched_param (POSIX sched.h) passed to
// sched_setscheduler(2). golang.org/x/sys/unix exposes the raw syscall
// numbers and constants but no high-level wrapper, so the struct layout
// is reproduced here to call the syscall directly.
type schedParam struct {
	Priority int32
}

// raiseMatcherPriority attempts to schedule the calling OS thread under
// SCHED_RR one priority below the maximum, matching the source's intent
// of giving the matcher loop scheduling precedence over session I/O
// (spec.md §5, Design Note "Matcher priority"). It is a best-effort
// hint: any failure (commonly EPERM when not running with elevated
// privileges) is swallowed and matching proceeds at the default
// priority, as Design Note §9 directs ("fall back silently").
func raiseMatcherPriority() {
	max, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(unix.SCHED_RR), 0, 0)
	if errno != 0 {
		return
	}
	param := schedParam{Priority: int32(max) - 1}
	unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(unix.SCHED_RR), uintptr(unsafe.Pointer(&param)))
}
