package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lottawords/internal/puzzle"
	"lottawords/internal/scraper"
	"lottawords/internal/solver"
	"lottawords/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	eastern, _ = time.LoadLocation("America/New_York")
	testNow    = time.Date(2026, 3, 10, 12, 0, 0, 0, eastern)
	square     = puzzle.Square{Top: "ABC", Right: "DEF", Bottom: "GHI", Left: "JKL"}
)

func goodRaw() puzzle.Raw {
	return puzzle.Raw{
		Sides:      []string{"ABC", "DEF", "GHI", "JKL"},
		Solution:   []string{"ADGJ", "JBEHK", "KCFIL"},
		Dictionary: []string{"ADGJ", "JBEHK", "KCFIL", "ADGJBEHK"},
	}
}

// fakeFetcher returns a canned result, optionally blocking until released.
type fakeFetcher struct {
	raw     puzzle.Raw
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (puzzle.Raw, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return puzzle.Raw{}, ctx.Err()
		}
	}
	return f.raw, f.err
}

type failingStore struct{ store.Store }

func (failingStore) Set(context.Context, *puzzle.Entry) error { return errors.New("disk full") }

func newService(f scraper.Fetcher, st store.Store) *Service {
	return New(Options{
		Fetcher: f,
		Store:   st,
		Solver:  solver.DefaultOptions(),
		Now:     func() time.Time { return testNow },
	})
}

func TestRefreshStoresSolution(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newService(&fakeFetcher{raw: goodRaw()}, st)

	data := svc.Refresh(context.Background())
	require.True(t, data.OK(), data.Err())
	assert.Equal(t, square, data.Square)
	assert.Equal(t, []string{"ADGJBEHK", "KCFIL"}, data.LottaSolution)
	assert.Equal(t, []string{"ADGJ", "JBEHK", "KCFIL"}, data.NYTSolution)

	e, err := st.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, data.LottaSolution, e.Data.LottaSolution)
	assert.True(t, testNow.Equal(e.LastUpdated))
	assert.Equal(t, time.UTC, e.LastUpdated.Location())
}

func TestRefreshErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  puzzle.Raw
		err  error
		want string
	}{
		{
			name: "three sides",
			raw:  puzzle.Raw{Sides: []string{"ABC", "DEF", "GHI"}, Dictionary: []string{"ADG"}},
			want: MsgInvalidSides,
		},
		{
			name: "game data missing",
			err:  scraper.ErrGameDataMissing,
			want: MsgInvalidSides,
		},
		{
			name: "empty dictionary",
			raw:  puzzle.Raw{Sides: []string{"ABC", "DEF", "GHI", "JKL"}},
			want: MsgNoDictionary,
		},
		{
			name: "fetch error",
			err:  errors.New("chrome crashed"),
			want: "fetch puzzle: chrome crashed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			svc := newService(&fakeFetcher{raw: tt.raw, err: tt.err}, st)

			data := svc.Refresh(context.Background())
			assert.False(t, data.OK())
			assert.Equal(t, tt.want, data.Err())

			body, err := json.Marshal(data)
			require.NoError(t, err)
			assert.JSONEq(t, `{"error":`+mustJSON(t, tt.want)+`}`, string(body))

			e, err := st.Get(context.Background())
			require.NoError(t, err)
			assert.Nil(t, e, "failed refresh must not be cached")
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestRefreshMissingNYTSolution(t *testing.T) {
	raw := goodRaw()
	raw.Solution = nil
	data := newService(&fakeFetcher{raw: raw}, store.NewMemoryStore()).Refresh(context.Background())
	require.True(t, data.OK())
	assert.NotNil(t, data.NYTSolution)
	assert.Empty(t, data.NYTSolution)
}

func TestRefreshSaveFailureStillServes(t *testing.T) {
	svc := newService(&fakeFetcher{raw: goodRaw()}, failingStore{store.NewMemoryStore()})
	data := svc.Refresh(context.Background())
	assert.True(t, data.OK())
}

func TestPuzzleUsesValidCache(t *testing.T) {
	st := store.NewMemoryStore()
	cached := puzzle.Data{Square: square, LottaSolution: []string{"CACHED"}}
	require.NoError(t, st.Set(context.Background(), &puzzle.Entry{
		Data:        cached,
		LastUpdated: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}))

	f := &fakeFetcher{raw: goodRaw()}
	res := newService(f, st).Puzzle(context.Background())
	assert.False(t, res.Loading)
	assert.Equal(t, []string{"CACHED"}, res.Data.LottaSolution)
	assert.Zero(t, f.calls.Load())
}

func TestPuzzleRefreshesStaleCache(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), &puzzle.Entry{
		Data:        puzzle.Data{Square: square, LottaSolution: []string{"OLD"}},
		LastUpdated: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
	}))

	f := &fakeFetcher{raw: goodRaw()}
	res := newService(f, st).Puzzle(context.Background())
	assert.Equal(t, []string{"ADGJBEHK", "KCFIL"}, res.Data.LottaSolution)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestPuzzleLoadingWhileRefreshing(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw(), release: make(chan struct{})}
	svc := newService(f, store.NewMemoryStore())

	done := make(chan puzzle.Data)
	go func() { done <- svc.Refresh(context.Background()) }()

	require.Eventually(t, svc.InProgress, time.Second, 5*time.Millisecond)
	assert.Equal(t, Status{CacheValid: false, ScrapingInProgress: true}, svc.Status(context.Background()))

	res := svc.Puzzle(context.Background())
	require.True(t, res.Loading)
	body, err := json.Marshal(res.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"loading","message":"Data is being prepared, please try again in a moment"}`, string(body))

	close(f.release)
	data := <-done
	assert.True(t, data.OK())
	assert.False(t, svc.InProgress())
	assert.Equal(t, Status{CacheValid: true, ScrapingInProgress: false}, svc.Status(context.Background()))
}

func TestRefreshCoalesces(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw(), release: make(chan struct{})}
	svc := newService(f, store.NewMemoryStore())

	var wg sync.WaitGroup
	results := make([]puzzle.Data, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Refresh(context.Background())
		}(i)
	}

	require.Eventually(t, svc.InProgress, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.EqualValues(t, 1, f.calls.Load())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestRefreshCallerCancelled(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw(), release: make(chan struct{})}
	st := store.NewMemoryStore()
	svc := newService(f, st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan puzzle.Data)
	go func() { done <- svc.Refresh(ctx) }()
	require.Eventually(t, svc.InProgress, time.Second, 5*time.Millisecond)

	cancel()
	data := <-done
	assert.Equal(t, context.Canceled.Error(), data.Err())

	// The shared refresh keeps going and still fills the cache.
	close(f.release)
	require.Eventually(t, func() bool { return svc.CacheValid(context.Background()) }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !svc.InProgress() }, time.Second, 5*time.Millisecond)
}

func TestWarm(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw()}
	svc := newService(f, store.NewMemoryStore())

	svc.Warm(context.Background())
	assert.EqualValues(t, 1, f.calls.Load())

	svc.Warm(context.Background())
	assert.EqualValues(t, 1, f.calls.Load(), "warm with a current cache should not scrape")
}

func TestDebug(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw()}
	svc := newService(f, store.NewMemoryStore())

	rep, err := svc.Debug(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]string", rep.SidesType)
	assert.Equal(t, 4, rep.DictionaryLength)
	assert.Empty(t, rep.SampleWords, "fewer than five words gives no sample")
	assert.Equal(t, "invalid or missing", rep.CacheStatus)
	assert.Nil(t, rep.CachedData)

	svc.Refresh(context.Background())
	f.raw.Dictionary = append(f.raw.Dictionary, "LIKE", "JIG")

	rep, err = svc.Debug(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ADGJ", "JBEHK", "KCFIL", "ADGJBEHK", "LIKE"}, rep.SampleWords)
	assert.Equal(t, "valid", rep.CacheStatus)
	require.NotNil(t, rep.CachedData)
	assert.Equal(t, 2, rep.CachedData.LottaSolutionLength)
}

func TestDebugFetchError(t *testing.T) {
	svc := newService(&fakeFetcher{err: errors.New("timeout")}, store.NewMemoryStore())
	_, err := svc.Debug(context.Background())
	assert.ErrorContains(t, err, "timeout")
}

func TestCloseCancelsRunningRefresh(t *testing.T) {
	f := &fakeFetcher{raw: goodRaw(), release: make(chan struct{})}
	st := store.NewMemoryStore()
	svc := newService(f, st)

	done := make(chan puzzle.Data)
	go func() { done <- svc.Refresh(context.Background()) }()
	require.Eventually(t, svc.InProgress, time.Second, 5*time.Millisecond)

	svc.Close()
	assert.False(t, svc.InProgress(), "Close must wait for the refresh to return")

	data := <-done
	assert.False(t, data.OK())
	assert.Contains(t, data.Err(), context.Canceled.Error())

	e, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)

	data = svc.Refresh(context.Background())
	assert.Equal(t, ErrClosed.Error(), data.Err())
	assert.EqualValues(t, 1, f.calls.Load())
}
