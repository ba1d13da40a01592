package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultInterval matches the access token lifetime minus a safety margin.
	DefaultInterval = 4 * time.Minute
	// DefaultRequestTimeout bounds a single refresh exchange.
	DefaultRequestTimeout = 15 * time.Second
)

// ErrNotRunning is returned by RefreshNow when no refresh token is scheduled.
var ErrNotRunning = fmt.Errorf("refresh scheduler is not running")

// errStale marks a result that arrived after the scheduler was stopped or
// restarted.
var errStale = fmt.Errorf("stale refresh result discarded")

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AccessTokenWriter stores a refreshed access token for the session that owns
// refreshToken.
type AccessTokenWriter interface {
	UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) error
}

// FailureHandler runs once when a refresh fails. It is expected to end the
// session.
type FailureHandler func(ctx context.Context, err error)

// Ticker delivers ticks until stopped.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time {
	return t.C
}

// NewTimeTicker is the default TickerFunc.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Scheduler keeps the stored access token fresh by refreshing it on a fixed
// interval. At most one timer and one refresh call exist at any time.
type Scheduler struct {
	refresher Refresher
	writer    AccessTokenWriter
	interval  time.Duration
	timeout   time.Duration
	newTicker TickerFunc
	onFailure FailureHandler

	lock         sync.Mutex
	generation   uint64
	running      bool
	refreshToken string
	cancel       context.CancelFunc

	inFlight singleflight.Group
}

// SchedulerOption defines a function type to modify the Scheduler instance.
type SchedulerOption func(*Scheduler)

// WithInterval sets the time between refreshes.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRequestTimeout bounds each refresh call.
func WithRequestTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTickerFunc replaces the ticker factory, mainly for tests.
func WithTickerFunc(f TickerFunc) SchedulerOption {
	return func(s *Scheduler) {
		if f != nil {
			s.newTicker = f
		}
	}
}

// WithFailureHandler sets the hook that runs when a refresh fails.
func WithFailureHandler(h FailureHandler) SchedulerOption {
	return func(s *Scheduler) {
		s.onFailure = h
	}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(refresher Refresher, writer AccessTokenWriter, options ...SchedulerOption) (*Scheduler, error) {
	if refresher == nil {
		return nil, fmt.Errorf("[refresh.NewScheduler] refresher is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("[refresh.NewScheduler] access token writer is required")
	}

	s := &Scheduler{
		refresher: refresher,
		writer:    writer,
		interval:  DefaultInterval,
		timeout:   DefaultRequestTimeout,
		newTicker: NewTimeTicker,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// SetFailureHandler replaces the failure hook after construction. The gateway
// owning the scheduler uses it to wire forced logout.
func (s *Scheduler) SetFailureHandler(h FailureHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onFailure = h
}

// Start begins refreshing with refreshToken. A running loop is cancelled first
// so only one timer ever exists.
func (s *Scheduler) Start(refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("[Scheduler.Start] %w: refresh token is required", errors.ErrInvalidSessionData)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.generation++
	s.running = true
	s.refreshToken = refreshToken
	s.cancel = cancel

	ticker := s.newTicker(s.interval)
	go s.loop(ctx, ticker, s.generation, refreshToken)

	log.Debug().Uint64("generation", s.generation).Dur("interval", s.interval).Msg("Token refresh scheduled")
	return nil
}

// Stop cancels future ticks. It is safe to call when already stopped. A
// refresh call already in flight is left to finish and its result discarded.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	s.generation++
	s.running = false
	s.refreshToken = ""
	s.cancel = nil
}

// Running reports whether a refresh loop is active.
func (s *Scheduler) Running() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.running
}

// RefreshNow performs one refresh through the same path as a tick.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	s.lock.Lock()
	if !s.running {
		s.lock.Unlock()
		return ErrNotRunning
	}
	generation, refreshToken := s.generation, s.refreshToken
	s.lock.Unlock()

	err := s.refresh(ctx, generation, refreshToken)
	if errors.Is(err, errStale) {
		return ErrNotRunning
	}
	return err
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, generation uint64, refreshToken string) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// The call is not tied to ctx: Stop must not abort a request
			// already on the wire.
			_ = s.refresh(context.WithoutCancel(ctx), generation, refreshToken)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, generation uint64, refreshToken string) error {
	result, err, _ := s.inFlight.Do(refreshToken, func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.refresher.Refresh(callCtx, refreshToken)
	})

	if !s.isCurrent(generation) {
		log.Debug().Uint64("generation", generation).Msg("Discarding refresh result after stop")
		return errStale
	}

	if err != nil {
		err = fmt.Errorf("[Scheduler.refresh] %w: %w", errors.ErrRefreshFailed, err)
		log.Err(err).Msg("Token refresh failed")
		s.fail(ctx, generation, err)
		return err
	}

	accessToken, _ := result.(string)
	if err := s.writer.UpdateAccessToken(ctx, refreshToken, accessToken); err != nil {
		if errors.Is(err, errors.ErrSessionNotFound) {
			log.Warn().Msg("Session ended during refresh, stopping scheduler")
			s.stopGeneration(generation)
			return errStale
		}
		log.Err(err).Msg("Failed to store refreshed access token")
		return errors.Wrapf(err, "[Scheduler.refresh] UpdateAccessToken")
	}

	log.Debug().Msg("Access token refreshed")
	return nil
}

func (s *Scheduler) isCurrent(generation uint64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.running && s.generation == generation
}

// stopGeneration stops the loop only if it is still the one identified by
// generation, and reports whether it did.
func (s *Scheduler) stopGeneration(generation uint64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.running || s.generation != generation {
		return false
	}
	s.stopLocked()
	return true
}

func (s *Scheduler) fail(ctx context.Context, generation uint64, err error) {
	if !s.stopGeneration(generation) {
		return
	}

	s.lock.Lock()
	handler := s.onFailure
	s.lock.Unlock()

	if handler != nil {
		handler(context.WithoutCancel(ctx), err)
	}
}
