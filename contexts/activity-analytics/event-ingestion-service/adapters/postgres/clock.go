package postgresadapter

import "time"

// SystemClock implements ports.Clock on wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
