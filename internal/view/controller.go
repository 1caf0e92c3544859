package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riskscorer/riskscorer/internal/dataset"
)

// DefaultRefreshDelay is how long a manual refresh keeps the loading state.
const DefaultRefreshDelay = 800 * time.Millisecond

// ErrClosed is returned by controller methods after Close.
var ErrClosed = errors.New("view controller closed")

// State is a point-in-time copy of a controller.
type State struct {
	Tab     Tab
	Role    Role
	Loading bool
	// Loaded is false until the first fetch completes.
	Loaded bool
	Data   dataset.Snapshot
}

// Can reports whether the current role may see region.
func (s State) Can(region Region) bool { return Visible(s.Role, region) }

// Options configures a Controller.
type Options struct {
	Tab          Tab
	Role         Role
	RefreshDelay time.Duration
}

// Controller tracks one viewer's dashboard state. It is safe for
// concurrent use.
type Controller struct {
	src          *dataset.Source
	refreshDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	tab        Tab
	role       Role
	fetching   bool
	loaded     bool
	data       dataset.Snapshot
	refreshing bool
	timer      *time.Timer
	gen        uint64
	closed     bool
}

// NewController builds a controller. Unknown tab or role in opts fall back
// to overview and securityAnalyst.
func NewController(src *dataset.Source, opts Options) *Controller {
	if _, ok := ParseTab(string(opts.Tab)); !ok {
		opts.Tab = TabOverview
	}
	if _, ok := ParseRole(string(opts.Role)); !ok {
		opts.Role = RoleSecurityAnalyst
	}
	if opts.RefreshDelay < 0 {
		opts.RefreshDelay = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		src:          src,
		refreshDelay: opts.RefreshDelay,
		ctx:          ctx,
		cancel:       cancel,
		tab:          opts.Tab,
		role:         opts.Role,
	}
}

// Start begins the initial data load in the background. The result is
// dropped if the controller is closed first.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.closed || c.fetching || c.loaded {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	c.mu.Unlock()

	go func() {
		snap, err := c.src.Fetch(c.ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.fetching = false
		if err != nil || c.closed {
			return
		}
		c.data = snap
		c.loaded = true
	}()
}

// SelectTab switches the active tab.
func (c *Controller) SelectTab(tab string) error {
	t, ok := ParseTab(tab)
	if !ok {
		return fmt.Errorf("unknown tab %q", tab)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.tab = t
	return nil
}

// SelectRole switches the viewer role.
func (c *Controller) SelectRole(role string) error {
	r, ok := ParseRole(role)
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.role = r
	return nil
}

// Refresh enters the loading state and leaves it after the refresh delay,
// picking up the source's current snapshot. Refreshing again while loading
// restarts the delay.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.refreshing = true
	c.timer = time.AfterFunc(c.refreshDelay, func() { c.finishRefresh(gen) })
	return nil
}

func (c *Controller) finishRefresh(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A stale timer that fired while a newer refresh reset it.
	if c.closed || gen != c.gen {
		return
	}
	c.refreshing = false
	c.timer = nil
	if c.loaded {
		c.data = c.src.Current()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Tab:     c.tab,
		Role:    c.role,
		Loading: c.fetching || c.refreshing,
		Loaded:  c.loaded,
		Data:    c.data.Clone(),
	}
}

// Close cancels pending loads and timers. No state changes after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
