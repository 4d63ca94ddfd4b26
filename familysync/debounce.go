package familysync

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SyncStatus is the transient indicator surfaced to the UI. There is no fatal
// state in this subsystem; the worst case is "stayed local-only".
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
	StatusSaved   SyncStatus = "saved"
	StatusError   SyncStatus = "error"
)

// Syncer is the slice of Client the controller needs.
type Syncer interface {
	Save(ctx context.Context, familyId string, scope Scope, payload any) (bool, error)
	Load(ctx context.Context, familyId string, scope Scope) (*ScopeData, error)
}

// Debounce windows per scope. High-churn scopes (a checkbox tap mutates
// activity) flush fast; settings change rarely and tolerate latency.
var defaultWindows = map[Scope]time.Duration{
	ScopeTasks:    500 * time.Millisecond,
	ScopeRewards:  500 * time.Millisecond,
	ScopeActivity: 500 * time.Millisecond,
	ScopeSettings: 1500 * time.Millisecond,
}

// Controller decides when to call the sync client: it coalesces bursts of
// local mutations per scope, gates all save scheduling behind syncReady so a
// queued save can never race a cold-start or family-switch load, and drives
// the scoped refresh on tab switches.
//
// Each scope's timer is independent; a pending activity save never delays a
// pending settings save. A burst of mutations within a scope's window
// collapses into a single save carrying the latest full snapshot.
type Controller struct {
	mu     sync.Mutex
	state  *State
	syncer Syncer
	logger *logrus.Logger

	windows      map[Scope]time.Duration
	timers       map[Scope]*time.Timer
	syncReady    bool
	blockedUntil time.Time
	status       SyncStatus
	now          func() time.Time
}

func NewController(state *State, syncer Syncer, logger *logrus.Logger) *Controller {
	windows := make(map[Scope]time.Duration, len(defaultWindows))
	for scope, window := range defaultWindows {
		windows[scope] = window
	}
	return &Controller{
		state:   state,
		syncer:  syncer,
		logger:  logger,
		windows: windows,
		timers:  map[Scope]*time.Timer{},
		status:  StatusIdle,
		now:     time.Now,
	}
}

func (c *Controller) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(status SyncStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncReady
}

// SetReady flips the save gate. Dropping it (family switch) also discards any
// armed timers so a stale local write cannot clobber the incoming remote
// state mid-flight.
func (c *Controller) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncReady = ready
	if !ready {
		c.stopTimersLocked()
	}
}

func (c *Controller) stopTimersLocked() {
	for scope, timer := range c.timers {
		timer.Stop()
		delete(c.timers, scope)
	}
}

// BlockInteraction suppresses tab-driven refreshes for a fixed duration
// (celebration overlay). It always expires on time, regardless of how the
// associated save turns out.
func (c *Controller) BlockInteraction(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockedUntil = c.now().Add(d)
}

func (c *Controller) InteractionBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.blockedUntil)
}

// MarkDirty schedules a debounced save for one scope. Without a family id
// sync is off and this is a silent no-op; before the initial load resolves,
// scheduling is suppressed entirely (not queued).
func (c *Controller) MarkDirty(scope Scope) {
	if !scope.ValidForSave() {
		return
	}
	familyId := c.state.FamilyId()

	c.mu.Lock()
	defer c.mu.Unlock()
	if familyId == "" || !c.syncReady {
		return
	}

	window, ok := c.windows[scope]
	if !ok {
		window = 500 * time.Millisecond
	}
	if timer, ok := c.timers[scope]; ok {
		timer.Reset(window)
		return
	}
	c.timers[scope] = time.AfterFunc(window, func() { c.flush(scope) })
}

// flush snapshots the scope and saves it. Runs on the timer goroutine; the
// user's edit already succeeded locally, so failure only moves the status
// flag.
func (c *Controller) flush(scope Scope) {
	c.mu.Lock()
	delete(c.timers, scope)
	ready := c.syncReady
	c.mu.Unlock()

	familyId := c.state.FamilyId()
	if familyId == "" || !ready {
		return
	}

	payload := c.state.Snapshot(scope)
	ok, err := c.syncer.Save(context.Background(), familyId, scope, payload)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"scope": string(scope)}).Error("scheduled save rejected: " + err.Error())
		c.setStatus(StatusError)
		return
	}
	if ok {
		c.setStatus(StatusSaved)
	} else {
		c.setStatus(StatusError)
	}
}

// InitialLoad runs the cold-start fetch. Sync becomes ready once it resolves,
// whether data came back or the family has nothing remote yet; a transport
// failure leaves the gate closed and is reported through the status flag
// (cold start is a background load).
func (c *Controller) InitialLoad(ctx context.Context) error {
	familyId := c.state.FamilyId()
	if familyId == "" {
		return nil
	}

	data, err := c.syncer.Load(ctx, familyId, ScopeAll)
	if err != nil {
		c.setStatus(StatusError)
		return err
	}
	c.state.Apply(data)
	c.SetReady(true)
	if data != nil {
		c.setStatus(StatusSaved)
	} else {
		c.setStatus(StatusIdle)
	}
	return nil
}

// RefreshView loads just the scopes the given view displays. Purely a
// bandwidth optimization: skipped while the gate is closed or a celebration
// is on screen, and load failures are swallowed into the status flag.
func (c *Controller) RefreshView(ctx context.Context, view View) {
	familyId := c.state.FamilyId()
	if familyId == "" || !c.Ready() || c.InteractionBlocked() {
		return
	}

	for _, scope := range ViewScopes[view] {
		data, err := c.syncer.Load(ctx, familyId, scope)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"view":  string(view),
				"scope": string(scope),
			}).Warn("view refresh failed: " + err.Error())
			c.setStatus(StatusError)
			continue
		}
		c.state.Apply(data)
	}
}
