package gesture

import "time"

// CancelFunc stops a scheduled task. It is safe to call more than once and
// safe to call after the task has already run.
type CancelFunc func()

// Scheduler runs a function once after a delay. The timers behind cooldown,
// watchdog, and grace-window resets all go through this interface so tests
// can drive them by hand.
//
// A fired task may race its own cancellation; callers that need exactness
// must guard the callback with their own generation check.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules on real timers. Callbacks run on their own
// goroutine.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
