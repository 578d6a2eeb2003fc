package rain

import "time"

// Clock supplies time for frame pacing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock uses the monotonic wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// FrameDuration returns the per-frame budget, truncated to whole milliseconds
func FrameDuration(fps int) time.Duration {
	return time.Duration(1000/max(1, fps)) * time.Millisecond
}
