package span

import "time"

// Clock supplies the current time so span timing can be controlled in
// tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
