// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/book-search/internal/catalog"
	"github.com/pdiddy/book-search/internal/debounce/debouncetest"
	"github.com/pdiddy/book-search/pkg/types"
)

const window = 100 * time.Millisecond

// --- fake catalog ---

type fakeCatalog struct {
	mu       sync.Mutex
	requests []catalog.Request
	ctxErrs  map[string]error

	// gates blocks Search for a query until the channel is closed.
	gates map[string]chan struct{}
	// ignoreCancel keeps a gated Search waiting even after its context ends.
	ignoreCancel bool

	respond func(req catalog.Request) (catalog.Result, error)
}

func newFakeCatalog(total int) *fakeCatalog {
	return &fakeCatalog{
		ctxErrs: map[string]error{},
		gates:   map[string]chan struct{}{},
		respond: func(req catalog.Request) (catalog.Result, error) {
			return pageOf(req, total), nil
		},
	}
}

func (f *fakeCatalog) Search(ctx context.Context, req catalog.Request) (catalog.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gates[req.Query]
	f.mu.Unlock()

	if gate != nil {
		if f.ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return catalog.Result{}, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	f.ctxErrs[req.Query] = ctx.Err()
	respond := f.respond
	f.mu.Unlock()
	return respond(req)
}

func (f *fakeCatalog) got() []catalog.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Request(nil), f.requests...)
}

func (f *fakeCatalog) setResponder(fn func(req catalog.Request) (catalog.Result, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = fn
}

// pageOf builds the items of req's page out of a result set of total books.
func pageOf(req catalog.Request, total int) catalog.Result {
	res := catalog.Result{Items: []types.Book{}, TotalItems: total}
	for i := req.StartIndex(); i < total && i < req.StartIndex()+types.PageSize; i++ {
		res.Items = append(res.Items, types.Book{
			ID:    fmt.Sprintf("%s-%d", req.Query, i),
			Title: fmt.Sprintf("%s #%d", req.Query, i),
		})
	}
	return res
}

func newTestController(t *testing.T, fc *fakeCatalog) (*Controller, *debouncetest.Clock) {
	t.Helper()
	clock := debouncetest.NewClock()
	c := NewController(fc, types.ControllerConfig{Debounce: window}, WithScheduler(clock))
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func waitSettled(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.Wait(ctx)
	require.NoError(t, err)
	return st
}

// --- initial state and SetQuery ---

func TestNewControllerIsIdle(t *testing.T) {
	c, _ := newTestController(t, newFakeCatalog(0))

	st := c.State()
	assert.Equal(t, types.StatusIdle, st.Status)
	assert.Equal(t, "", st.Query)
	assert.Equal(t, types.PagingState{CurrentPage: 1, LastPage: 0}, st.Paging)
	assert.False(t, st.HasResults())
}

func TestSetQueryDoesNotFetch(t *testing.T) {
	fc := newFakeCatalog(10)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	clock.Advance(time.Second)

	st := c.State()
	assert.Equal(t, "dune", st.Query)
	assert.Equal(t, ChangeQuery, st.Change)
	assert.Empty(t, fc.got())
	assert.Equal(t, 0, clock.Pending())
}

// --- SubmitSearch ---

func TestSubmitSearch_EmptyQueryIsNoop(t *testing.T) {
	fc := newFakeCatalog(10)
	c, clock := newTestController(t, fc)

	require.NoError(t, c.SubmitSearch())
	clock.Advance(time.Second)

	assert.Empty(t, fc.got())
	assert.Equal(t, types.StatusIdle, c.State().Status)
}

func TestSubmitSearch_RequestsFirstPage(t *testing.T) {
	for _, q := range []string{"dune", "the left hand of darkness", "ñ & ü"} {
		t.Run(q, func(t *testing.T) {
			fc := newFakeCatalog(42)
			c, clock := newTestController(t, fc)

			c.SetQuery(q)
			require.NoError(t, c.SubmitSearch())
			clock.Advance(window)
			waitSettled(t, c)

			reqs := fc.got()
			require.Len(t, reqs, 1)
			assert.Equal(t, q, reqs[0].Query)
			assert.Equal(t, 1, reqs[0].Page)
			assert.Equal(t, 10, reqs[0].PageSize)
			assert.Equal(t, 0, reqs[0].StartIndex())
		})
	}
}

func TestDuneScenario(t *testing.T) {
	fc := newFakeCatalog(0)
	fc.setResponder(func(catalog.Request) (catalog.Result, error) {
		return catalog.Result{
			Items:      []types.Book{{ID: "x1", Title: "Dune"}},
			TotalItems: 1,
		}, nil
	})
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	st := waitSettled(t, c)

	assert.Equal(t, types.StatusLoaded, st.Status)
	assert.Equal(t, ChangeResult, st.Change)
	require.Len(t, st.Results, 1)
	assert.Equal(t, types.Book{ID: "x1", Title: "Dune"}, st.Results[0])
	assert.Nil(t, st.Results[0].Authors)
	assert.Equal(t, types.PagingState{CurrentPage: 1, LastPage: 1}, st.Paging)
	assert.True(t, st.HasResults())
}

// --- GoToPage ---

func TestGoToPage_UpdatesCurrentPageSynchronously(t *testing.T) {
	for _, page := range []int{1, 2, 4, 37} {
		t.Run(fmt.Sprintf("page %d", page), func(t *testing.T) {
			fc := newFakeCatalog(1000)
			c, clock := newTestController(t, fc)
			c.SetQuery("dune")

			require.NoError(t, c.GoToPage(page))

			st := c.State()
			assert.Equal(t, page, st.Paging.CurrentPage)
			assert.Equal(t, ChangePage, st.Change)
			assert.Empty(t, fc.got(), "no request before the debounce window elapses")

			clock.Advance(window)
			waitSettled(t, c)
			reqs := fc.got()
			require.Len(t, reqs, 1)
			assert.Equal(t, page, reqs[0].Page)
			assert.Equal(t, (page-1)*10, reqs[0].StartIndex())
		})
	}
}

func TestGoToPage_EmptyQueryDoesNotFetch(t *testing.T) {
	fc := newFakeCatalog(100)
	c, clock := newTestController(t, fc)

	require.NoError(t, c.GoToPage(3))
	clock.Advance(time.Second)

	st := waitSettled(t, c)
	assert.Equal(t, 3, st.Paging.CurrentPage)
	assert.Nil(t, st.Results)
	assert.Equal(t, types.StatusIdle, st.Status)
	assert.Empty(t, fc.got())
}

func TestGoToPage_RejectsNonPositive(t *testing.T) {
	c, _ := newTestController(t, newFakeCatalog(0))

	assert.ErrorIs(t, c.GoToPage(0), ErrInvalidPage)
	assert.ErrorIs(t, c.GoToPage(-2), ErrInvalidPage)
	assert.Equal(t, 1, c.State().Paging.CurrentPage)
}

// --- debounce ---

func TestDebounceCollapsesToLastCall(t *testing.T) {
	fc := newFakeCatalog(95)
	c, clock := newTestController(t, fc)
	c.SetQuery("dune")

	require.NoError(t, c.GoToPage(2)) // t=0
	clock.Advance(30 * time.Millisecond)
	require.NoError(t, c.GoToPage(3)) // t=30
	clock.Advance(10 * time.Millisecond)
	require.NoError(t, c.GoToPage(5)) // t=40

	clock.Advance(99 * time.Millisecond)
	assert.Empty(t, fc.got())

	clock.Advance(1 * time.Millisecond)
	st := waitSettled(t, c)

	reqs := fc.got()
	require.Len(t, reqs, 1)
	assert.Equal(t, 5, reqs[0].Page)
	assert.Equal(t, types.PagingState{CurrentPage: 5, LastPage: 10}, st.Paging)
}

func TestDebounceUsesQueryAtCallTime(t *testing.T) {
	fc := newFakeCatalog(30)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	c.SetQuery("dune messiah")
	clock.Advance(window)
	waitSettled(t, c)

	reqs := fc.got()
	require.Len(t, reqs, 1)
	assert.Equal(t, "dune", reqs[0].Query)
}

// --- fetch resolution ---

func TestLastPageRoundsUp(t *testing.T) {
	fc := newFakeCatalog(95)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	st := waitSettled(t, c)

	assert.Equal(t, 10, st.Paging.LastPage)
	assert.Equal(t, 95, st.TotalItems)
	assert.Len(t, st.Results, 10)
}

func TestResultPageIsReplacedNotAppended(t *testing.T) {
	fc := newFakeCatalog(25)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	waitSettled(t, c)

	require.NoError(t, c.GoToPage(3))
	clock.Advance(window)
	st := waitSettled(t, c)

	require.Len(t, st.Results, 5)
	assert.Equal(t, "dune-20", st.Results[0].ID)
	assert.Equal(t, types.PagingState{CurrentPage: 3, LastPage: 3}, st.Paging)
}

func TestZeroResultsIsLoadedNotFailed(t *testing.T) {
	fc := newFakeCatalog(0)
	c, clock := newTestController(t, fc)

	c.SetQuery("zzzzqx")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	st := waitSettled(t, c)

	assert.Equal(t, types.StatusLoaded, st.Status)
	assert.NoError(t, st.Err)
	assert.Empty(t, st.Results)
	assert.Equal(t, types.PagingState{CurrentPage: 1, LastPage: 0}, st.Paging)
}

func TestFetchFailureKeepsPreviousPage(t *testing.T) {
	fc := newFakeCatalog(95)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	before := waitSettled(t, c)

	boom := errors.New("connection reset")
	fc.setResponder(func(catalog.Request) (catalog.Result, error) {
		return catalog.Result{}, boom
	})
	require.NoError(t, c.GoToPage(2))
	clock.Advance(window)
	st := waitSettled(t, c)

	assert.Equal(t, types.StatusFailed, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, before.Results, st.Results)
	assert.Equal(t, 10, st.Paging.LastPage)
	assert.Equal(t, 2, st.Paging.CurrentPage, "optimistic page update survives the failure")

	// A later success clears the failure.
	fc.setResponder(func(req catalog.Request) (catalog.Result, error) {
		return pageOf(req, 95), nil
	})
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	st = waitSettled(t, c)
	assert.Equal(t, types.StatusLoaded, st.Status)
	assert.NoError(t, st.Err)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fc := newFakeCatalog(30)
	fc.ignoreCancel = true
	slow := make(chan struct{})
	fc.gates["dune"] = slow
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)

	c.SetQuery("emma")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	fresh := waitSettled(t, c)
	require.Equal(t, "emma-0", fresh.Results[0].ID)

	// The older fetch now completes successfully and must not win.
	close(slow)
	c.wg.Wait()

	st := c.State()
	assert.Equal(t, fresh.Version, st.Version)
	assert.Equal(t, "emma-0", st.Results[0].ID)
	assert.Equal(t, types.StatusLoaded, st.Status)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.ErrorIs(t, fc.ctxErrs["dune"], context.Canceled, "superseded fetch is cancelled")
}

func TestConcurrentNavigationSettlesOnNewestFetch(t *testing.T) {
	fc := newFakeCatalog(3000)
	fc.setResponder(func(req catalog.Request) (catalog.Result, error) {
		time.Sleep(time.Millisecond)
		return pageOf(req, 3000), nil
	})
	c := NewController(fc, types.ControllerConfig{Debounce: time.Microsecond})
	defer c.Close()
	c.SetQuery("dune")

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := 1; page <= 300; page++ {
				assert.NoError(t, c.GoToPage(page))
			}
		}()
	}
	wg.Wait()

	st := waitSettled(t, c)
	require.Equal(t, types.StatusLoaded, st.Status)
	require.NotEmpty(t, st.Results)
	want := fmt.Sprintf("dune-%d", types.StartIndex(st.Paging.CurrentPage, types.PageSize))
	assert.Equal(t, want, st.Results[0].ID, "results belong to the displayed page")
}

func TestClampsToLastPageWhenResultsShrink(t *testing.T) {
	fc := newFakeCatalog(15)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.GoToPage(5))
	clock.Advance(window)
	st := waitSettled(t, c)

	reqs := fc.got()
	require.Len(t, reqs, 2)
	assert.Equal(t, 5, reqs[0].Page)
	assert.Equal(t, 2, reqs[1].Page)
	assert.Equal(t, types.PagingState{CurrentPage: 2, LastPage: 2}, st.Paging)
	assert.Equal(t, types.StatusLoaded, st.Status)
	assert.Len(t, st.Results, 5)
}

// --- observers and navigation ---

func TestObserversSeeEachChange(t *testing.T) {
	fc := newFakeCatalog(12)
	c, clock := newTestController(t, fc)

	var mu sync.Mutex
	var seen []State
	c.OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	waitSettled(t, c)
	c.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, ChangeQuery, seen[0].Change)
	assert.Equal(t, ChangeFetch, seen[1].Change)
	assert.Equal(t, types.StatusLoading, seen[1].Status)
	assert.Equal(t, ChangeResult, seen[2].Change)
	assert.Equal(t, types.StatusLoaded, seen[2].Status)
	assert.Less(t, seen[0].Version, seen[1].Version)
	assert.Less(t, seen[1].Version, seen[2].Version)
}

func TestObserversReceiveVersionsInOrder(t *testing.T) {
	for run := 0; run < 50; run++ {
		fc := newFakeCatalog(5)
		c := NewController(fc, types.ControllerConfig{Debounce: time.Millisecond})

		var mu sync.Mutex
		var versions []uint64
		var last State
		c.OnChange(func(s State) {
			if s.Change == ChangeFetch {
				time.Sleep(200 * time.Microsecond)
			}
			mu.Lock()
			defer mu.Unlock()
			versions = append(versions, s.Version)
			last = s
		})

		c.SetQuery("dune")
		require.NoError(t, c.SubmitSearch())
		st := waitSettled(t, c)

		mu.Lock()
		for i := 1; i < len(versions); i++ {
			require.Less(t, versions[i-1], versions[i], "run %d delivered %v", run, versions)
		}
		assert.Equal(t, st.Version, last.Version)
		assert.Equal(t, types.StatusLoaded, last.Status)
		mu.Unlock()
		c.Close()
	}
}

func TestObserverMayCallBackIntoController(t *testing.T) {
	fc := newFakeCatalog(25)
	c := NewController(fc, types.ControllerConfig{Debounce: time.Millisecond})
	defer c.Close()

	var mu sync.Mutex
	var versions []uint64
	c.OnChange(func(s State) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
		if s.Change == ChangeResult && s.Paging.CurrentPage == 1 {
			assert.NoError(t, c.GoToPage(2))
		}
	})

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())

	require.Eventually(t, func() bool {
		st := c.State()
		return st.Status == types.StatusLoaded && st.Paging.CurrentPage == 2
	}, 2*time.Second, time.Millisecond)
	st := waitSettled(t, c)
	assert.Equal(t, "dune-10", st.Results[0].ID)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}
}

func TestNavigationProps(t *testing.T) {
	fc := newFakeCatalog(95)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)
	waitSettled(t, c)

	nav := c.Navigation()
	assert.Equal(t, 1, nav.CurrentPage)
	assert.Equal(t, 10, nav.LastPage)
	assert.False(t, nav.HasPrev())
	assert.True(t, nav.HasNext())

	require.NoError(t, nav.Next())
	assert.Equal(t, 2, c.State().Paging.CurrentPage)

	nav = c.Navigation()
	assert.True(t, nav.HasPrev())
	require.NoError(t, nav.Prev())
	assert.Equal(t, 1, c.State().Paging.CurrentPage)

	assert.ErrorIs(t, c.Navigation().Prev(), ErrInvalidPage)
}

// --- Wait and Close ---

func TestWaitHonoursContext(t *testing.T) {
	c, _ := newTestController(t, newFakeCatalog(10))
	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDiscardsPendingFetch(t *testing.T) {
	fc := newFakeCatalog(10)
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.GoToPage(2))
	require.NoError(t, c.Close())
	clock.Advance(time.Second)

	assert.Empty(t, fc.got())
	assert.ErrorIs(t, c.GoToPage(3), ErrClosed)
	assert.ErrorIs(t, c.SubmitSearch(), ErrClosed)
	_, err := c.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, c.Close())
}

func TestCloseCancelsInFlightFetch(t *testing.T) {
	fc := newFakeCatalog(10)
	fc.gates["dune"] = make(chan struct{})
	c, clock := newTestController(t, fc)

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	clock.Advance(window)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while a fetch was in flight")
	}
	assert.Equal(t, types.StatusLoading, c.State().Status)
}

func TestControllerWithWallClock(t *testing.T) {
	fc := newFakeCatalog(3)
	c := NewController(fc, types.ControllerConfig{Debounce: 5 * time.Millisecond})
	defer c.Close()

	c.SetQuery("dune")
	require.NoError(t, c.SubmitSearch())
	st := waitSettled(t, c)

	assert.Equal(t, types.StatusLoaded, st.Status)
	assert.Len(t, st.Results, 3)
}
