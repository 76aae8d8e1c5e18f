package orchestrators

import (
	"errors"

	"golang.org/x/sync/singleflight"

	"dersplan/internal/domain/account"
)

var (
	// ErrNoActiveSession is returned before any write when no user is signed in.
	ErrNoActiveSession = account.ErrNoActiveSession
	// ErrNotOwner is returned when the session user does not own the target plan.
	ErrNotOwner = errors.New("plan belongs to another user")
)

// InFlight runs at most one operation per key at a time. A caller arriving
// while the same key is running waits and receives that run's result, so a
// double-posted form still produces a single store call. fn runs with the
// first caller's context; callers pass one detached from the request so a
// shared result never carries another request's cancellation.
type InFlight struct {
	group singleflight.Group
}

// Do runs fn under key.
// POST: shared is true when the result came from a call started by another request
func (f *InFlight) Do(key string, fn func() (string, error)) (result string, shared bool, err error) {
	v, err, shared := f.group.Do(key, func() (any, error) {
		return fn()
	})
	s, _ := v.(string)
	return s, shared, err
}
