// Package pool implements CoreQL's Channel Pool — spec.md §4.4: a
// bounded idle-connection pool that, for the minimal useful case,
// holds a single connection with age-based expiration.
//
// Grounded on the teacher's mcp.RateLimiter (mcp/security.go): a
// mutex-protected map plus a background goroutine driven by a
// time.Ticker that periodically sweeps stale entries. ChannelPool
// adapts that shape to a single slot and, since spec.md requires
// expiration to reschedule "until no pooled entry remains" rather than
// tick forever, replaces the teacher's infinite ticker loop with a
// self-rescheduling time.AfterFunc that stops once the pool is empty.
package pool

import (
	"sync"
	"time"

	"github.com/core-orm/coreql/adaptor"
	"github.com/core-orm/coreql/corerr"
)

// entry is the pooled channel plus the timestamp it was released at.
type entry struct {
	channel    adaptor.Channel
	releasedAt time.Time
}

// ChannelPool is a bounded single-connection pool of adaptor.Channel.
// A lock protects the single slot; the expiration timer runs on its
// own goroutine (via time.AfterFunc) and only takes the lock to
// read/remove — spec.md §4.4 "Thread safety".
type ChannelPool struct {
	mu     sync.Mutex
	held   *entry
	maxAge time.Duration
	period time.Duration
	timer  *time.Timer
	closed bool
}

// New builds a ChannelPool that expires a held channel once it has sat
// idle for at least maxAge. Expiration is checked every maxAge
// (shortenable via WithCheckPeriod for tests that can't wait out a
// production-sized maxAge).
func New(maxAge time.Duration) *ChannelPool {
	period := maxAge
	if period <= 0 {
		period = time.Minute
	}
	return &ChannelPool{maxAge: maxAge, period: period}
}

// WithCheckPeriod overrides the expiration sweep interval.
func (p *ChannelPool) WithCheckPeriod(period time.Duration) *ChannelPool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.period = period
	return p
}

// Grab returns the held channel (transferring ownership to the
// caller) if one is pooled, else nil — spec.md §4.4 "grab()".
func (p *ChannelPool) Grab() adaptor.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held == nil {
		return nil
	}
	ch := p.held.channel
	p.held = nil
	return ch
}

// Add installs ch as the pooled channel, provided no channel is
// already pooled. A channel with an open transaction is refused:
// rolled back and discarded — spec.md §4.4 "add(channel)".
func (p *ChannelPool) Add(ch adaptor.Channel) error {
	if ch.IsTransactionInProgress() {
		if err := ch.Rollback(); err != nil {
			return corerr.Driver(err, "pool: rolling back a channel refused from the pool")
		}
		return ch.Close()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.held != nil {
		// Slot occupied (or pool shutting down): the surplus channel
		// is closed rather than replacing what's already pooled.
		return ch.Close()
	}
	p.held = &entry{channel: ch, releasedAt: time.Now()}
	p.scheduleExpirationLocked()
	return nil
}

func (p *ChannelPool) scheduleExpirationLocked() {
	if p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(p.period, p.sweep)
}

// sweep runs on its own dedicated goroutine (spec.md §4.4: "expiration
// is single-threaded via a dedicated queue"); it closes the held
// channel if stale, and reschedules itself at a fixed period until no
// pooled entry remains.
func (p *ChannelPool) sweep() {
	p.mu.Lock()
	if p.held == nil || p.closed {
		p.timer = nil
		p.mu.Unlock()
		return
	}
	if time.Since(p.held.releasedAt) >= p.maxAge {
		stale := p.held.channel
		p.held = nil
		p.timer = nil
		p.mu.Unlock()
		stale.Close()
		return
	}
	p.timer = time.AfterFunc(p.period, p.sweep)
	p.mu.Unlock()
}

// Close stops the expiration timer and closes any held channel.
func (p *ChannelPool) Close() error {
	p.mu.Lock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	held := p.held
	p.held = nil
	p.mu.Unlock()

	if held != nil {
		return held.channel.Close()
	}
	return nil
}
