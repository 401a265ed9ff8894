package finetune

import "time"

// Clock is the source of time for the wait loop, so tests can run it without
// sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func RealClock() Clock {
	return realClock{}
}
