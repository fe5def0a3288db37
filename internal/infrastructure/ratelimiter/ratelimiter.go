package ratelimiter

import "time"

type Limiter interface {
	// Allow reports whether the given source may proceed; when it may not,
	// the returned duration is how long until the window resets.
	Allow(source string) (bool, time.Duration)
	Close()
}
