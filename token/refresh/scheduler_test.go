package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/token/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (mt *manualTicker) Chan() <-chan time.Time { return mt.ch }

func (mt *manualTicker) Stop() { mt.once.Do(func() { close(mt.stopped) }) }

// tick delivers one tick, reporting false if the loop never received it.
func (mt *manualTicker) tick() bool {
	select {
	case mt.ch <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

type tickerFactory struct {
	lock      sync.Mutex
	tickers   []*manualTicker
	intervals []time.Duration
}

func (tf *tickerFactory) New(d time.Duration) refresh.Ticker {
	tf.lock.Lock()
	defer tf.lock.Unlock()
	mt := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	tf.tickers = append(tf.tickers, mt)
	tf.intervals = append(tf.intervals, d)
	return mt
}

func (tf *tickerFactory) get(i int) *manualTicker {
	tf.lock.Lock()
	defer tf.lock.Unlock()
	return tf.tickers[i]
}

func (tf *tickerFactory) count() int {
	tf.lock.Lock()
	defer tf.lock.Unlock()
	return len(tf.tickers)
}

type fakeRefresher struct {
	lock    sync.Mutex
	calls   []string
	access  string
	err     error
	release chan struct{}
	entered chan struct{}
}

func (fr *fakeRefresher) Refresh(_ context.Context, refreshToken string) (string, error) {
	fr.lock.Lock()
	fr.calls = append(fr.calls, refreshToken)
	release, entered := fr.release, fr.entered
	fr.lock.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return fr.access, fr.err
}

func (fr *fakeRefresher) Calls() []string {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return append([]string(nil), fr.calls...)
}

type update struct {
	refresh string
	access  string
}

type fakeWriter struct {
	lock    sync.Mutex
	updates []update
	err     error
}

func (fw *fakeWriter) UpdateAccessToken(_ context.Context, refreshToken, accessToken string) error {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	if fw.err != nil {
		return fw.err
	}
	fw.updates = append(fw.updates, update{refresh: refreshToken, access: accessToken})
	return nil
}

func (fw *fakeWriter) Updates() []update {
	fw.lock.Lock()
	defer fw.lock.Unlock()
	return append([]update(nil), fw.updates...)
}

type testFixture struct {
	tickers   *tickerFactory
	refresher *fakeRefresher
	writer    *fakeWriter
	failures  chan error
	scheduler *refresh.Scheduler
}

func setupTestFixture(t *testing.T, options ...refresh.SchedulerOption) *testFixture {
	t.Helper()

	f := &testFixture{
		tickers:   &tickerFactory{},
		refresher: &fakeRefresher{access: "new-access"},
		writer:    &fakeWriter{},
		failures:  make(chan error, 4),
	}

	options = append([]refresh.SchedulerOption{
		refresh.WithTickerFunc(f.tickers.New),
		refresh.WithFailureHandler(func(_ context.Context, err error) { f.failures <- err }),
	}, options...)

	s, err := refresh.NewScheduler(f.refresher, f.writer, options...)
	require.NoError(t, err)
	f.scheduler = s
	t.Cleanup(s.Stop)
	return f
}

func TestNewScheduler(t *testing.T) {
	_, err := refresh.NewScheduler(nil, &fakeWriter{})
	require.Error(t, err)
	_, err = refresh.NewScheduler(&fakeRefresher{}, nil)
	require.Error(t, err)
}

func TestScheduler_StartValidatesToken(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.scheduler.Start(" "), apperrors.ErrInvalidSessionData)
	require.False(t, f.scheduler.Running())
	require.Zero(t, f.tickers.count())
}

func TestScheduler_TickRefreshesAccessToken(t *testing.T) {
	f := setupTestFixture(t, refresh.WithInterval(2*time.Minute))

	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.True(t, f.scheduler.Running())
	require.Equal(t, []time.Duration{2 * time.Minute}, f.tickers.intervals)

	require.True(t, f.tickers.get(0).tick())
	require.Eventually(t, func() bool { return len(f.writer.Updates()) == 1 }, waitFor, 5*time.Millisecond)
	require.Equal(t, []update{{refresh: "refresh-1", access: "new-access"}}, f.writer.Updates())

	require.True(t, f.tickers.get(0).tick())
	require.Eventually(t, func() bool { return len(f.writer.Updates()) == 2 }, waitFor, 5*time.Millisecond)
	require.True(t, f.scheduler.Running())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.Equal(t, []time.Duration{refresh.DefaultInterval}, f.tickers.intervals)
}

func TestScheduler_StartTwiceKeepsOneTimer(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.NoError(t, f.scheduler.Start("refresh-2"))
	require.Equal(t, 2, f.tickers.count())

	first, second := f.tickers.get(0), f.tickers.get(1)
	select {
	case <-first.stopped:
	case <-time.After(waitFor):
		t.Fatal("first ticker was not stopped")
	}
	require.False(t, first.tick(), "cancelled loop must not receive ticks")

	require.True(t, second.tick())
	require.Eventually(t, func() bool { return len(f.writer.Updates()) == 1 }, waitFor, 5*time.Millisecond)
	require.Equal(t, []string{"refresh-2"}, f.refresher.Calls())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	f.scheduler.Stop()
	require.NoError(t, f.scheduler.Start("refresh-1"))
	f.scheduler.Stop()
	f.scheduler.Stop()

	require.False(t, f.scheduler.Running())
	select {
	case <-f.tickers.get(0).stopped:
	case <-time.After(waitFor):
		t.Fatal("ticker was not stopped")
	}
	require.False(t, f.tickers.get(0).tick())
	require.Empty(t, f.refresher.Calls())
}

func TestScheduler_FailureRunsHandlerOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.err = errors.New("401 Unauthorized")

	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.True(t, f.tickers.get(0).tick())

	select {
	case err := <-f.failures:
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.ErrorContains(t, err, "401 Unauthorized")
	case <-time.After(waitFor):
		t.Fatal("failure handler was not called")
	}

	require.False(t, f.scheduler.Running())
	require.Empty(t, f.writer.Updates())
	require.Len(t, f.refresher.Calls(), 1, "no retry after failure")
	require.Empty(t, f.failures)
}

func TestScheduler_LateSuccessAfterStopIsDiscarded(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.release = make(chan struct{})
	f.refresher.entered = make(chan struct{}, 1)

	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.True(t, f.tickers.get(0).tick())

	select {
	case <-f.refresher.entered:
	case <-time.After(waitFor):
		t.Fatal("refresh was not attempted")
	}

	f.scheduler.Stop()
	close(f.refresher.release)

	assert.Never(t, func() bool { return len(f.writer.Updates()) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	require.False(t, f.scheduler.Running())
}

func TestScheduler_LateFailureAfterStopIsIgnored(t *testing.T) {
	f := setupTestFixture(t)
	f.refresher.err = errors.New("connection reset")
	f.refresher.release = make(chan struct{})
	f.refresher.entered = make(chan struct{}, 1)

	require.NoError(t, f.scheduler.Start("refresh-1"))
	require.True(t, f.tickers.get(0).tick())
	<-f.refresher.entered

	f.scheduler.Stop()
	close(f.refresher.release)

	assert.Never(t, func() bool { return len(f.failures) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_RefreshNow(t *testing.T) {
	ctx := context.Background()

	t.Run("not running", func(t *testing.T) {
		f := setupTestFixture(t)
		require.ErrorIs(t, f.scheduler.RefreshNow(ctx), refresh.ErrNotRunning)
	})

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.scheduler.Start("refresh-1"))
		require.NoError(t, f.scheduler.RefreshNow(ctx))
		require.Equal(t, []update{{refresh: "refresh-1", access: "new-access"}}, f.writer.Updates())
	})

	t.Run("failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.refresher.err = errors.New("bad body")
		require.NoError(t, f.scheduler.Start("refresh-1"))

		err := f.scheduler.RefreshNow(ctx)
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.Len(t, f.failures, 1)
		require.False(t, f.scheduler.Running())
	})

	t.Run("session gone", func(t *testing.T) {
		f := setupTestFixture(t)
		f.writer.err = apperrors.ErrSessionNotFound
		require.NoError(t, f.scheduler.Start("refresh-1"))

		require.ErrorIs(t, f.scheduler.RefreshNow(ctx), refresh.ErrNotRunning)
		require.False(t, f.scheduler.Running())
		require.Empty(t, f.failures)
	})
}

func TestScheduler_ConcurrentRefreshesShareOneCall(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.refresher.release = make(chan struct{})
	f.refresher.entered = make(chan struct{}, 8)

	require.NoError(t, f.scheduler.Start("refresh-1"))

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.scheduler.RefreshNow(ctx))
		}()
	}

	<-f.refresher.entered
	// Let the other callers join the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(f.refresher.release)
	wg.Wait()

	require.Len(t, f.refresher.Calls(), 1)
}
