//go:build !linux

package book

// raiseMatcherPriority is a no-op on platforms without a SCHED_RR hint
// available through x/sys/unix; the matcher simply runs at default
// goroutine scheduling (spec.md §9, "Matcher priority": "fall back
// silently otherwise").
func raiseMatcherPriority() {}
