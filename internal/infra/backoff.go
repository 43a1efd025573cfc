package infra

import "time"

const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 60 * time.Second
)

// CalculateBackoff returns the reconnect delay for a retry count: 1s, 2s, 4s, ... capped at 60s.
func CalculateBackoff(retry int) time.Duration {
	return CalculateBackoffWithCap(retry, maxBackoff)
}

// CalculateBackoffWithCap is CalculateBackoff with a custom ceiling.
func CalculateBackoffWithCap(retry int, ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		ceiling = maxBackoff
	}
	if retry < 0 {
		retry = 0
	}
	if retry > 30 {
		return ceiling
	}
	d := baseBackoff << uint(retry)
	if d > ceiling {
		return ceiling
	}
	return d
}
