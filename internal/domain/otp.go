package domain

import "time"

const OTPWindow = 60 * time.Second

// OTPCountdown tracks the resend window after a code was requested.
type OTPCountdown struct {
	Mobile      string
	RequestedAt time.Time
}

// Remaining is the whole seconds left before a new code may be requested.
func (c OTPCountdown) Remaining(now time.Time) int {
	if c.RequestedAt.IsZero() {
		return 0
	}
	left := OTPWindow - now.Sub(c.RequestedAt)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (c OTPCountdown) Expired(now time.Time) bool {
	return c.Remaining(now) == 0
}
