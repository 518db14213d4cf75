package domain

import "time"

// Milliseconds converts a configured millisecond count into a duration.
func Milliseconds(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// TimeoutMs is the upstream timeout as it appears in configuration and messages.
func (c UpstreamConfig) TimeoutMs() int64 {
	return c.Timeout.Milliseconds()
}
