// README: Cancellable one-shot timer handles owned per ride.
package ride

import "time"

// ScheduledTask wraps a one-shot timer so lifecycle operations can cancel a
// pending callback deterministically. The callback must re-check ride status
// before mutating; Cancel stops the timer but cannot interrupt a callback
// that has already started.
type ScheduledTask struct {
	timer *time.Timer
}

func schedule(d time.Duration, fn func()) *ScheduledTask {
	if d < 0 {
		d = 0
	}
	return &ScheduledTask{timer: time.AfterFunc(d, fn)}
}

// Cancel stops the pending callback. It reports whether the timer was still
// pending; cancelling an already-fired or already-cancelled task is a no-op.
func (t *ScheduledTask) Cancel() bool {
	if t == nil || t.timer == nil {
		return false
	}
	return t.timer.Stop()
}
