// Package listview keeps a client-side page of visitors in step with the
// service. Deletes are applied optimistically and rolled back by refetching;
// list fetches carry sequence numbers so only the latest issued one lands.
package listview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/diagnosis/visitor-desk/pkg/client"
	"github.com/diagnosis/visitor-desk/pkg/logger"
)

const (
	DefaultLimit          = 10
	DefaultSearchDebounce = 500 * time.Millisecond
)

// ErrStale is returned by a fetch whose result was superseded by a later one.
var ErrStale = errors.New("listview: superseded by a newer request")

// ErrUnknownItem is returned when deleting an id that is not displayed.
var ErrUnknownItem = errors.New("listview: item not in list")

// Gateway is the remote side of the list.
type Gateway interface {
	ListVisitors(ctx context.Context, opts client.ListOptions) (*client.VisitorPage, error)
	DeleteVisitor(ctx context.Context, id int64) error
}

type State int

const (
	Stable State = iota
	Pending
	Reconciled
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Reconciled:
		return "reconciled"
	case RolledBack:
		return "rolled_back"
	default:
		return "stable"
	}
}

// Filters are the non-text list filters. Dates are YYYY-MM-DD and only apply
// when DateEnabled is set.
type Filters struct {
	Gender      string
	Address     string
	DateEnabled bool
	StartDate   string
	EndDate     string
}

// Snapshot is a copy of the displayed state.
type Snapshot struct {
	Items      []client.Visitor
	Total      int
	Page       int
	Limit      int
	TotalPages int
	Search     string
	Filters    Filters
	State      State
	// Err is the failure of the most recent fetch, nil once one succeeds.
	Err        error
}

type Option func(*Controller)

func WithLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

func WithSearchDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounceWait = d }
}

// WithNotice registers the sink for user-visible failure notices.
func WithNotice(fn func(msg string, err error)) Option {
	return func(c *Controller) { c.notice = fn }
}

// WithOnChange is called with a fresh snapshot after every state change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

type Controller struct {
	gw           Gateway
	limit        int
	debounceWait time.Duration
	notice       func(string, error)
	onChange     func(Snapshot)

	mu       sync.Mutex
	items    []client.Visitor
	total    int
	page     int
	search   string
	filters  Filters
	state    State
	lastErr  error
	issued   uint64
	deleting map[int64]struct{}

	pendingSearch  string
	searchCtx      context.Context
	debounced      func()
	cancelDebounce func()
	closed         bool
	// wg counts running debounced searches; Add only happens under mu while
	// closed is false.
	wg             sync.WaitGroup
}

func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:           gw,
		limit:        DefaultLimit,
		debounceWait: DefaultSearchDebounce,
		page:         1,
		deleting:     make(map[int64]struct{}),
		searchCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounced, c.cancelDebounce = debounce.New(c.debounceWait, c.runSearch)
	return c
}

// Close drops any debounced search that has not fired yet and waits for one
// that is already running.
func (c *Controller) Close() {
	c.cancelDebounce()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	items := make([]client.Visitor, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Items:      items,
		Total:      c.total,
		Page:       c.page,
		Limit:      c.limit,
		TotalPages: totalPages(c.total, c.limit),
		Search:     c.search,
		Filters:    c.filters,
		State:      c.state,
		Err:        c.lastErr,
	}
}

// Refresh refetches the current page.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx)
}

// SetPage moves to page n (1-indexed) and fetches it.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.page = n
	c.mu.Unlock()
	return c.fetch(ctx)
}

// SetFilters replaces the filters, returns to page one and fetches.
func (c *Controller) SetFilters(ctx context.Context, f Filters) error {
	c.mu.Lock()
	c.filters = f
	c.page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// SetSearch records the search text; the fetch runs once input has been
// quiet for the debounce period. ctx is used for that fetch.
func (c *Controller) SetSearch(ctx context.Context, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pendingSearch = text
	c.searchCtx = ctx
	c.mu.Unlock()
	c.debounced()
}

func (c *Controller) runSearch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	defer c.wg.Done()
	c.search = c.pendingSearch
	c.page = 1
	ctx := c.searchCtx
	c.mu.Unlock()

	if err := c.fetch(ctx); err != nil && !errors.Is(err, ErrStale) {
		logger.DebugContext(ctx, "Debounced search failed", "error", err)
	}
}

// fetch issues a list request tagged with the next sequence number. Only the
// most recently issued request may replace the displayed page.
func (c *Controller) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	opts := c.optionsLocked()
	c.mu.Unlock()

	page, err := c.gw.ListVisitors(ctx, opts)

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		logger.DebugContext(ctx, "Discarding stale list response", "seq", seq, "latest", c.latest())
		return ErrStale
	}
	if err != nil {
		c.lastErr = err
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		c.report("Failed to load visitors", err)
		return err
	}

	c.items = c.items[:0]
	removed := 0
	for _, v := range page.Visitors {
		if _, gone := c.deleting[v.ID]; gone {
			removed++
			continue
		}
		c.items = append(c.items, v)
	}
	c.total = page.Total - removed
	if c.total < 0 {
		c.total = 0
	}
	c.lastErr = nil
	if len(c.deleting) == 0 {
		c.state = Stable
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	return nil
}

func (c *Controller) latest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

func (c *Controller) optionsLocked() client.ListOptions {
	opts := client.ListOptions{
		Page:    c.page,
		Limit:   c.limit,
		Search:  c.search,
		Gender:  c.filters.Gender,
		Address: c.filters.Address,
	}
	if c.filters.DateEnabled {
		opts.DateFilter = true
		opts.StartDate = c.filters.StartDate
		opts.EndDate = c.filters.EndDate
	}
	return opts
}

// Delete removes id from the display and decrements the total at once, then
// asks the server. On failure the list is refetched rather than patched back.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	idx := -1
	for i, v := range c.items {
		if v.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrUnknownItem
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	if c.total > 0 {
		c.total--
	}
	c.deleting[id] = struct{}{}
	c.state = Pending
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	err := c.gw.DeleteVisitor(ctx, id)

	c.mu.Lock()
	delete(c.deleting, id)
	if err == nil {
		c.state = Reconciled
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		return nil
	}
	c.state = RolledBack
	c.mu.Unlock()

	c.report("Failed to delete visitor", err)
	if ferr := c.fetch(ctx); ferr != nil && !errors.Is(ferr, ErrStale) {
		logger.WarnContext(ctx, "Refetch after failed delete also failed", "error", ferr)
	}
	c.mu.Lock()
	c.state = RolledBack
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return err
}

// MergeCreated prepends a record returned by a successful create.
func (c *Controller) MergeCreated(v client.Visitor) {
	c.mu.Lock()
	c.items = append([]client.Visitor{v}, c.items...)
	if len(c.items) > c.limit {
		c.items = c.items[:c.limit]
	}
	c.total++
	c.state = Stable
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// MergeUpdated replaces the displayed record with the same id, if shown.
func (c *Controller) MergeUpdated(v client.Visitor) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == v.ID {
			c.items[i] = v
			break
		}
	}
	c.state = Stable
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

func (c *Controller) emit(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller) report(msg string, err error) {
	if c.notice != nil {
		c.notice(msg, err)
	}
}

func totalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
