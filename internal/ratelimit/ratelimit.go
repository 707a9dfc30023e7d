// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Store counts hits for a key within a window.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Profile is a named limit applied to a group of routes.
type Profile struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	Standard = Profile{Name: "standard", Limit: 100, Window: time.Minute}
	Auth     = Profile{Name: "auth", Limit: 5, Window: time.Minute}
	Public   = Profile{Name: "public", Limit: 20, Window: time.Minute}
)

// Key identifies a caller on a route.
func Key(ip, path string) string {
	return ip + ":" + path
}

// RetrySeconds rounds a retry hint up to whole seconds, never below one.
func RetrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

func decide(count, limit int, resetAt, now time.Time) Decision {
	d := Decision{
		Allowed: count <= limit,
		Limit:   limit,
		ResetAt: resetAt,
	}
	if d.Allowed {
		d.Remaining = limit - count
	} else {
		d.RetryAfter = resetAt.Sub(now)
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
	}
	return d
}
