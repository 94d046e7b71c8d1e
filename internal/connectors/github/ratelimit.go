package github

import (
	"context"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"
)

// Hourly request quotas for the REST API.
const (
	AuthenticatedQuota   = 5000
	UnauthenticatedQuota = 60
)

// authenticatedPace keeps a long walk under the hourly quota
// (4320 requests/hour) with headroom for manual refreshes.
const authenticatedPace rate.Limit = 1.2

// RateLimiter paces requests to one GitHub API and pauses when the quota
// reported by the last response runs low or a secondary limit is hit.
type RateLimiter struct {
	pace *rate.Limiter

	mu         sync.Mutex
	quota      gh.Rate
	reserve    int
	pauseUntil time.Time
}

// RateState is a snapshot of the last observed quota.
type RateState struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// NewRateLimiter creates a rate limiter sized for authenticated or
// anonymous access.
func NewRateLimiter(authenticated bool) *RateLimiter {
	r := &RateLimiter{
		pace:    rate.NewLimiter(authenticatedPace, 1),
		quota:   gh.Rate{Limit: AuthenticatedQuota, Remaining: AuthenticatedQuota},
		reserve: 100,
	}
	if !authenticated {
		r.pace = rate.NewLimiter(rate.Every(time.Hour/UnauthenticatedQuota), 5)
		r.quota = gh.Rate{Limit: UnauthenticatedQuota, Remaining: UnauthenticatedQuota}
		r.reserve = 1
	}
	return r
}

// SetLimit changes the pacing rate. Tests use rate.Inf.
func (r *RateLimiter) SetLimit(l rate.Limit) {
	r.pace.SetLimit(l)
}

// Wait blocks until the next request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.pace.Wait(ctx); err != nil {
		return err
	}

	until := r.resumeAt()
	if until.IsZero() {
		return nil
	}
	timer := time.NewTimer(time.Until(until))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resumeAt returns when requests may continue, or zero if they may
// continue now.
func (r *RateLimiter) resumeAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	until := time.Time{}
	if now.Before(r.pauseUntil) {
		until = r.pauseUntil
	}
	if reset := r.quota.Reset.Time; r.quota.Remaining < r.reserve && now.Before(reset) && reset.After(until) {
		until = reset
	}
	return until
}

// Observe records the quota parsed from a response. Responses without
// rate headers leave the state unchanged.
func (r *RateLimiter) Observe(resp *gh.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quota = resp.Rate
}

// PauseFor holds all requests for d, as asked by a secondary rate limit.
func (r *RateLimiter) PauseFor(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(d); until.After(r.pauseUntil) {
		r.pauseUntil = until
	}
}

// State returns the last observed quota.
func (r *RateLimiter) State() RateState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RateState{
		Limit:     r.quota.Limit,
		Remaining: r.quota.Remaining,
		Reset:     r.quota.Reset.Time,
	}
}

// Remaining returns the remaining requests in the current window.
func (r *RateLimiter) Remaining() int {
	return r.State().Remaining
}
