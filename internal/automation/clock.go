package automation

import "time"

// Clock supplies the wall-clock time used for the date typed into the form.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
