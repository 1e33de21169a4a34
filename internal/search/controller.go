// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search holds the controller that turns query edits and page
// navigation into debounced catalog fetches and keeps the latest results
// and paging position for display.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/book-search/internal/catalog"
	"github.com/pdiddy/book-search/internal/debounce"
	"github.com/pdiddy/book-search/internal/logger"
	"github.com/pdiddy/book-search/pkg/types"
)

var (
	// ErrInvalidPage is returned by GoToPage for pages below 1.
	ErrInvalidPage = errors.New("page must be at least 1")

	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("search controller closed")
)

// fetchRequest captures the arguments of a fetch at call time so a
// debounced burst runs with the query and page of its last call.
type fetchRequest struct {
	query string
	page  int
	call  uint64
}

// Option customises a Controller.
type Option func(*Controller)

// WithScheduler replaces the wall-clock debounce scheduler.
func WithScheduler(s debounce.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// Controller owns the query text, the current result page and the paging
// state. All methods are safe for concurrent use.
//
// Every fetch is tagged with a sequence number when issued. Only the
// result of the most recently issued fetch is applied; superseded fetches
// are cancelled and their late results discarded.
type Controller struct {
	catalog  catalog.Catalog
	sched    debounce.Scheduler
	debounce *debounce.Debouncer[fetchRequest]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     State
	seq       uint64
	calls     uint64
	scheduled bool
	inflight  context.CancelFunc
	settled   chan struct{}
	observers []func(State)
	closed    bool

	// outbox queues snapshots in Version order until one goroutine at a
	// time delivers them to observers.
	outbox     []State
	delivering bool
}

// NewController returns an idle controller fetching from cat.
func NewController(cat catalog.Catalog, cfg types.ControllerConfig, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		catalog: cat,
		ctx:     ctx,
		cancel:  cancel,
		settled: make(chan struct{}),
		state: State{
			Status: types.StatusIdle,
			Paging: types.InitialPaging(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounce = debounce.New(cfg.Debounce, c.sched, c.fire)
	return c
}

// OnChange registers fn to receive every new State in Version order.
// Observers are never run concurrently with each other. fn runs after the
// controller lock is released and may call back into the controller, but
// must not call Wait.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetQuery replaces the query text. It never triggers a fetch.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	if c.closed || c.state.Query == text {
		c.mu.Unlock()
		return
	}
	c.state.Query = text
	c.bumpLocked(ChangeQuery)
	c.mu.Unlock()

	c.deliver()
}

// SubmitSearch schedules a debounced fetch of page 1 when the query is
// non-empty and does nothing otherwise.
func (c *Controller) SubmitSearch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state.Query == "" {
		return nil
	}
	c.scheduleLocked(fetchRequest{query: c.state.Query, page: 1})
	return nil
}

// GoToPage moves the current page to page immediately, before any network
// response, and schedules a debounced fetch of that page when the query is
// non-empty.
func (c *Controller) GoToPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state.Paging.CurrentPage = page
	c.bumpLocked(ChangePage)
	if c.state.Query != "" {
		c.scheduleLocked(fetchRequest{query: c.state.Query, page: page})
	}
	c.mu.Unlock()

	c.deliver()
	return nil
}

// Navigation returns the props for the page navigation view.
func (c *Controller) Navigation() Navigation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Navigation{
		CurrentPage: c.state.Paging.CurrentPage,
		LastPage:    c.state.Paging.LastPage,
		OnNavigate:  c.GoToPage,
	}
}

// Wait blocks until no fetch is scheduled or in flight and every observer
// has seen the latest State, then returns that State.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return State{}, ErrClosed
		}
		if !c.scheduled && c.inflight == nil && !c.delivering && len(c.outbox) == 0 {
			snap := c.state.clone()
			c.mu.Unlock()
			return snap, nil
		}
		ch := c.settled
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
}

// Close cancels the pending debounce and any in-flight fetch and waits for
// fetch goroutines to exit. It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	close(c.settled)
	c.mu.Unlock()

	c.debounce.Stop()
	c.cancel()
	c.wg.Wait()
	return nil
}

// scheduleLocked hands req to the debouncer. Caller holds c.mu.
func (c *Controller) scheduleLocked(req fetchRequest) {
	c.calls++
	req.call = c.calls
	if c.debounce.Call(req) {
		c.scheduled = true
	}
}

// fire is the debounced fetch entry point.
func (c *Controller) fire(req fetchRequest) {
	c.mu.Lock()
	// A newer call can fire first when its timer beats this goroutine to
	// the lock.
	if c.closed || req.call != c.calls {
		c.mu.Unlock()
		return
	}
	// A Call may have landed between the timer firing and this lock.
	c.scheduled = c.debounce.Pending()
	c.startFetchLocked(req)
	c.bumpLocked(ChangeFetch)
	c.mu.Unlock()

	c.deliver()
}

// startFetchLocked issues req, cancelling any fetch it supersedes. Caller
// holds c.mu.
func (c *Controller) startFetchLocked(req fetchRequest) {
	if c.inflight != nil {
		c.inflight()
	}
	c.seq++
	seq := c.seq

	ctx, cancel := context.WithCancel(logger.ContextWithID(c.ctx, fmt.Sprintf("fetch-%d", seq)))
	c.inflight = cancel
	c.state.Status = types.StatusLoading
	c.state.Err = nil

	logger.For(ctx).WithFields(logrus.Fields{
		"query": req.query,
		"page":  req.page,
	}).Debug("fetch issued")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		res, err := c.catalog.Search(ctx, catalog.NewRequest(req.query, req.page))
		c.resolve(ctx, seq, req, res, err)
	}()
}

// resolve applies a fetch outcome if seq is still the newest fetch.
func (c *Controller) resolve(ctx context.Context, seq uint64, req fetchRequest, res catalog.Result, err error) {
	log := logger.For(ctx)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		log.WithFields(logrus.Fields{"seq": seq, "latest": latest}).Debug("discarding superseded fetch result")
		return
	}
	c.inflight = nil

	if err != nil {
		log.WithError(err).Warn("fetch failed")
		c.state.Status = types.StatusFailed
		c.state.Err = err
	} else {
		last := res.LastPage(types.PageSize)
		if last > 0 && req.page > last {
			// The result set shrank below the requested page: clamp and
			// fetch the real last page instead of showing an empty one.
			log.WithFields(logrus.Fields{"page": req.page, "last_page": last}).Info("clamping to last page")
			c.state.Paging = types.PagingState{CurrentPage: last, LastPage: last}
			c.state.TotalItems = res.TotalItems
			c.startFetchLocked(fetchRequest{query: req.query, page: last})
			c.bumpLocked(ChangeFetch)
			c.mu.Unlock()
			c.deliver()
			return
		}
		c.state.Status = types.StatusLoaded
		c.state.Err = nil
		c.state.Results = res.Items
		c.state.TotalItems = res.TotalItems
		c.state.Paging = types.PagingState{CurrentPage: req.page, LastPage: last}
	}
	c.bumpLocked(ChangeResult)
	c.mu.Unlock()

	c.deliver()
}

// bumpLocked records a mutation, queues its snapshot for observers and
// wakes Wait callers. Caller holds c.mu.
func (c *Controller) bumpLocked(change Change) {
	c.state.Version++
	c.state.Change = change
	c.outbox = append(c.outbox, c.state.clone())
	c.signalLocked()
}

// signalLocked wakes Wait callers. Caller holds c.mu.
func (c *Controller) signalLocked() {
	if !c.closed {
		close(c.settled)
		c.settled = make(chan struct{})
	}
}

// deliver drains the outbox to observers unless another goroutine is
// already doing so, in which case that goroutine picks up the new
// snapshots before it stops.
func (c *Controller) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.outbox) > 0 {
		batch := c.outbox
		c.outbox = nil
		observers := c.observers
		c.mu.Unlock()

		for _, snap := range batch {
			for _, fn := range observers {
				fn(snap.clone())
			}
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.signalLocked()
	c.mu.Unlock()
}
