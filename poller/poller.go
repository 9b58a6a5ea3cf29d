// Package poller keeps views fresh by re-running their fetch on a fixed
// interval and whenever the read cache invalidates something they depend on.
package poller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tranvictor/petshop/metrics"
	"github.com/tranvictor/petshop/util/cache"
)

const DefaultInterval = 5 * time.Second

// FetchFunc refreshes one view. The context is cancelled when the
// subscription is closed.
type FetchFunc func(ctx context.Context) error

type Option func(*options)

type options struct {
	interval   time.Duration
	background bool
	enabled    bool
	immediate  bool
	dependsOn  []string
}

func defaultOptions() options {
	return options{
		interval:   DefaultInterval,
		background: true,
		enabled:    true,
	}
}

// Every sets the polling interval.
func Every(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Background controls whether ticks still fetch while the subscription is
// not in the foreground. It is on by default.
func Background(on bool) Option {
	return func(o *options) { o.background = on }
}

// DependsOn refreshes the subscription whenever the cache invalidates a
// prefix overlapping one of prefixes.
func DependsOn(prefixes ...string) Option {
	return func(o *options) { o.dependsOn = append(o.dependsOn, prefixes...) }
}

func Enabled(on bool) Option {
	return func(o *options) { o.enabled = on }
}

// Immediate fetches once right after subscribing instead of waiting for the
// first tick.
func Immediate() Option {
	return func(o *options) { o.immediate = true }
}

// Poller owns a set of subscriptions sharing a clock and a cache.
type Poller struct {
	clock clock.Clock
	store *cache.Store

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// New returns a poller ticking on clk. store may be nil, DependsOn is then a
// no-op.
func New(clk clock.Clock, store *cache.Store) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	return &Poller{
		clock: clk,
		store: store,
		subs:  map[string]*Subscription{},
	}
}

// Subscribe starts polling fetch. The ticker is armed before Subscribe
// returns so a clock advanced right after it is never missed.
func (p *Poller) Subscribe(name string, fetch FetchFunc, opts ...Option) *Subscription {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		id:         uuid.New().String(),
		name:       name,
		poller:     p,
		fetch:      fetch,
		interval:   o.interval,
		background: o.background,
		enabled:    o.enabled,
		foreground: true,
		dependsOn:  o.dependsOn,
		ctx:        ctx,
		cancel:     cancel,
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.logger = log.WithFields(log.Fields{
		"component":    "poller",
		"subscription": name,
		"id":           s.id,
	})

	s.ticker = p.clock.Ticker(o.interval)
	if p.store != nil && len(o.dependsOn) > 0 {
		s.unsubscribe = p.store.Subscribe(s.onInvalidate)
	}
	if o.immediate {
		s.kick <- struct{}{}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		s.closed = true
		s.shutdown()
		close(s.done)
		return s
	}
	p.subs[s.id] = s
	p.mu.Unlock()

	go s.loop()
	s.logger.WithField("interval", o.interval).Debug("subscribed")
	return s
}

func (p *Poller) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

// Len is the number of open subscriptions.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close closes every subscription and refuses new ones.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	subs := make([]*Subscription, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Subscription is one polled view. All methods are safe for concurrent use.
type Subscription struct {
	id        string
	name      string
	poller    *Poller
	fetch     FetchFunc
	interval  time.Duration
	dependsOn []string
	logger    *log.Entry

	ticker      *clock.Ticker
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	kick        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once

	mu         sync.Mutex
	background bool
	enabled    bool
	foreground bool
	closed     bool
	forced     bool
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) Name() string {
	return s.name
}

func (s *Subscription) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			if s.active() {
				s.run()
			}
		case <-s.kick:
			s.mu.Lock()
			forced := s.forced
			s.forced = false
			s.mu.Unlock()
			if forced || s.active() {
				s.run()
			}
		}
	}
}

func (s *Subscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && (s.foreground || s.background)
}

func (s *Subscription) run() {
	// a tick and the close may race in the select above
	if s.ctx.Err() != nil {
		return
	}
	err := s.fetch(s.ctx)
	if s.ctx.Err() != nil {
		return
	}
	metrics.ObservePoll(s.name, err)
	if err != nil {
		s.logger.WithError(err).Warn("refresh failed, retrying on next tick")
		return
	}
	s.logger.Trace("refreshed")
}

func (s *Subscription) trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Subscription) onInvalidate(prefix string) {
	for _, dep := range s.dependsOn {
		if strings.HasPrefix(dep, prefix) || strings.HasPrefix(prefix, dep) {
			s.logger.WithField("prefix", prefix).Debug("dependency invalidated")
			s.trigger()
			return
		}
	}
}

// Refresh asks for an out-of-band fetch regardless of the foreground and
// enabled flags. Requests made while a fetch is queued are coalesced.
func (s *Subscription) Refresh() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.forced = true
	s.mu.Unlock()
	s.trigger()
}

func (s *Subscription) SetForeground(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foreground = on
}

func (s *Subscription) SetEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = on
}

// Close stops the ticker, cancels an in-flight fetch and waits for the
// polling goroutine to exit. No fetch starts after Close returns.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.shutdown()
		s.poller.remove(s.id)
		s.logger.Debug("closed")
	})
	<-s.done
}

func (s *Subscription) shutdown() {
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.ticker.Stop()
}
