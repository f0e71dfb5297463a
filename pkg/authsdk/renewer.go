package authsdk

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RenewerState is where a Renewer is in its cycle.
type RenewerState int

const (
	// RenewerIdle: nothing scheduled, either never started, stopped, or
	// the refresh expiry had already passed.
	RenewerIdle RenewerState = iota
	RenewerScheduled
	RenewerFiring
	RenewerRenewed
	RenewerFailed
)

func (s RenewerState) String() string {
	switch s {
	case RenewerIdle:
		return "idle"
	case RenewerScheduled:
		return "scheduled"
	case RenewerFiring:
		return "firing"
	case RenewerRenewed:
		return "renewed"
	case RenewerFailed:
		return "failed"
	}
	return "unknown"
}

// RenewerOptions configures a Renewer. Zero values are fine.
type RenewerOptions struct {
	Logger *slog.Logger

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(RenewerState)

	// Timeout bounds a single renewal call. Default 10s.
	Timeout time.Duration

	// Now overrides the clock used to compute the delay.
	Now func() time.Time
}

// Renewer keeps a Session alive by renewing it when its refresh token
// expires. At most one timer is pending at a time. A failed renewal is
// logged and not retried; the caller has to log in again.
type Renewer struct {
	session *Session
	opts    RenewerOptions

	mu    sync.Mutex
	state RenewerState
	timer *time.Timer
	// gen is bumped whenever the pending timer is cancelled so a callback
	// that already fired can tell it is stale.
	gen uint64
}

// NewRenewer creates a Renewer for session. Call Start to arm it.
func NewRenewer(session *Session, opts RenewerOptions) *Renewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renewer{session: session, opts: opts}
}

// State returns the current state.
func (r *Renewer) State() RenewerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start schedules a renewal at the session's refresh expiry. Calling it
// again replaces the pending timer.
func (r *Renewer) Start() {
	r.mu.Lock()
	r.cancelLocked()
	state := r.scheduleLocked()
	r.mu.Unlock()

	r.notify(state)
}

// Stop cancels the pending renewal, if any.
func (r *Renewer) Stop() {
	r.mu.Lock()
	r.cancelLocked()
	changed := r.state != RenewerIdle
	r.state = RenewerIdle
	r.mu.Unlock()

	if changed {
		r.notify(RenewerIdle)
	}
}

// SetSession replaces the session bundle and reschedules against the new
// refresh expiry.
func (r *Renewer) SetSession(bundle SessionResponse) {
	r.session.Replace(bundle)
	r.Start()
}

func (r *Renewer) cancelLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// scheduleLocked arms the timer when the refresh expiry is in the future
// and returns the resulting state.
func (r *Renewer) scheduleLocked() RenewerState {
	expiry := r.session.Bundle().RefreshTokenExpiry
	if expiry <= 0 {
		r.state = RenewerIdle
		return r.state
	}

	delay := time.Unix(expiry, 0).Sub(r.opts.Now())
	if delay <= 0 {
		r.opts.Logger.Info("refresh expiry already passed, not scheduling renewal",
			slog.Time("refresh_expires_at", time.Unix(expiry, 0)),
		)
		r.state = RenewerIdle
		return r.state
	}

	gen := r.gen
	r.timer = time.AfterFunc(delay, func() { r.fire(gen) })
	r.state = RenewerScheduled
	return r.state
}

func (r *Renewer) fire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.state = RenewerFiring
	r.mu.Unlock()
	r.notify(RenewerFiring)

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()

	next, err := r.session.client.RenewSession(ctx, RenewRequestFor(r.session.Bundle()))

	r.mu.Lock()
	if gen != r.gen {
		// Stopped or restarted while the call was in flight.
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.state = RenewerFailed
		r.mu.Unlock()

		r.opts.Logger.Warn("session renewal failed", slog.Any("error", err))
		r.notify(RenewerFailed)
		return
	}

	r.session.Replace(*next)
	r.state = RenewerRenewed
	r.mu.Unlock()

	r.opts.Logger.Info("session renewed",
		slog.String("id", next.ID),
		slog.Time("refresh_expires_at", next.RefreshExpiresAt()),
	)
	r.notify(RenewerRenewed)

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	state := r.scheduleLocked()
	r.mu.Unlock()
	r.notify(state)
}

func (r *Renewer) notify(state RenewerState) {
	if r.opts.OnStateChange != nil {
		r.opts.OnStateChange(state)
	}
}
