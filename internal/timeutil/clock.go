package timeutil

import "time"

// Clock abstracts time.Now so deadline-based timers (verification lockout,
// resend cooldown, toast expiry) can be driven by a fake clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }
