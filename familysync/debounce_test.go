package familysync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedCall struct {
	familyId string
	scope    Scope
	payload  any
}

type stubSyncer struct {
	mu       sync.Mutex
	saves    []savedCall
	loads    []Scope
	saveOK   bool
	saveErr  error
	loadData *ScopeData
	loadErr  error
}

func newStubSyncer() *stubSyncer {
	return &stubSyncer{saveOK: true}
}

func (s *stubSyncer) Save(ctx context.Context, familyId string, scope Scope, payload any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, savedCall{familyId: familyId, scope: scope, payload: payload})
	return s.saveOK, s.saveErr
}

func (s *stubSyncer) Load(ctx context.Context, familyId string, scope Scope) (*ScopeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, scope)
	return s.loadData, s.loadErr
}

func (s *stubSyncer) savedCalls() []savedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]savedCall(nil), s.saves...)
}

func (s *stubSyncer) loadedScopes() []Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Scope(nil), s.loads...)
}

func newTestController(t *testing.T, syncer Syncer) (*Controller, *State) {
	t.Helper()
	state := NewState(NewMemKV(), testLogger())
	state.SetFamilyId("fam1")
	ctrl := NewController(state, syncer, testLogger())
	for scope := range ctrl.windows {
		ctrl.windows[scope] = 20 * time.Millisecond
	}
	return ctrl, state
}

func waitForSaves(t *testing.T, syncer *stubSyncer, want int) []savedCall {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := syncer.savedCalls(); len(calls) >= want {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	calls := syncer.savedCalls()
	require.Len(t, calls, want)
	return calls
}

func TestMarkDirtyCoalescesBursts(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, state := newTestController(t, syncer)
	ctrl.SetReady(true)

	for i := 0; i < 5; i++ {
		state.SetTasks([]Task{{ID: "t1"}, {ID: "t2"}})
		ctrl.MarkDirty(ScopeTasks)
	}

	calls := waitForSaves(t, syncer, 1)
	// Five rapid mutations collapse into one save carrying the final snapshot.
	time.Sleep(100 * time.Millisecond)
	calls = syncer.savedCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "fam1", calls[0].familyId)
	assert.Equal(t, ScopeTasks, calls[0].scope)
	tasks, ok := calls[0].payload.([]Task)
	require.True(t, ok)
	assert.Len(t, tasks, 2)
	assert.Equal(t, StatusSaved, ctrl.Status())
}

func TestMarkDirtySuppressedBeforeReady(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)

	ctrl.MarkDirty(ScopeTasks)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, syncer.savedCalls())
}

func TestMarkDirtyRequiresFamilyId(t *testing.T) {
	syncer := newStubSyncer()
	state := NewState(NewMemKV(), testLogger())
	ctrl := NewController(state, syncer, testLogger())
	for scope := range ctrl.windows {
		ctrl.windows[scope] = 20 * time.Millisecond
	}
	ctrl.SetReady(true)

	ctrl.MarkDirty(ScopeTasks)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, syncer.savedCalls())
}

func TestMarkDirtyScopesAreIndependent(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)
	ctrl.SetReady(true)

	ctrl.MarkDirty(ScopeTasks)
	ctrl.MarkDirty(ScopeSettings)

	calls := waitForSaves(t, syncer, 2)
	scopes := map[Scope]bool{}
	for _, call := range calls {
		scopes[call.scope] = true
	}
	assert.True(t, scopes[ScopeTasks])
	assert.True(t, scopes[ScopeSettings])
}

func TestSetReadyFalseDiscardsPendingSaves(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)
	ctrl.SetReady(true)

	ctrl.MarkDirty(ScopeActivity)
	ctrl.SetReady(false)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, syncer.savedCalls())
}

func TestFlushFailureOnlyMovesStatus(t *testing.T) {
	syncer := newStubSyncer()
	syncer.saveOK = false
	ctrl, state := newTestController(t, syncer)
	ctrl.SetReady(true)

	state.SetTasks([]Task{{ID: "t1"}})
	ctrl.MarkDirty(ScopeTasks)

	waitForSaves(t, syncer, 1)
	deadline := time.Now().Add(time.Second)
	for ctrl.Status() != StatusError && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, StatusError, ctrl.Status())
	// The local edit survives the failed save.
	assert.Len(t, state.Tasks(), 1)
}

func TestInitialLoadAppliesAndOpensGate(t *testing.T) {
	syncer := newStubSyncer()
	balance := 12
	syncer.loadData = &ScopeData{
		UserName: "小星",
		Balance:  &balance,
		Tasks:    []Task{{ID: "t1"}},
	}
	ctrl, state := newTestController(t, syncer)

	require.NoError(t, ctrl.InitialLoad(context.Background()))
	assert.True(t, ctrl.Ready())
	assert.Equal(t, StatusSaved, ctrl.Status())
	assert.Equal(t, "小星", state.UserName())
	assert.Equal(t, 12, state.Balance())
}

func TestInitialLoadNothingRemoteYet(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)

	require.NoError(t, ctrl.InitialLoad(context.Background()))
	assert.True(t, ctrl.Ready())
	assert.Equal(t, StatusIdle, ctrl.Status())
}

func TestInitialLoadFailureKeepsGateClosed(t *testing.T) {
	syncer := newStubSyncer()
	syncer.loadErr = assert.AnError
	ctrl, _ := newTestController(t, syncer)

	assert.Error(t, ctrl.InitialLoad(context.Background()))
	assert.False(t, ctrl.Ready())
	assert.Equal(t, StatusError, ctrl.Status())
}

func TestInitialLoadWithoutFamilyIdIsNoOp(t *testing.T) {
	syncer := newStubSyncer()
	state := NewState(NewMemKV(), testLogger())
	ctrl := NewController(state, syncer, testLogger())

	require.NoError(t, ctrl.InitialLoad(context.Background()))
	assert.False(t, ctrl.Ready())
	assert.Empty(t, syncer.loadedScopes())
}

func TestRefreshViewLoadsDeclaredScopes(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)
	ctrl.SetReady(true)

	ctrl.RefreshView(context.Background(), ViewDaily)
	assert.Equal(t, []Scope{ScopeTasks, ScopeActivity}, syncer.loadedScopes())

	syncer.mu.Lock()
	syncer.loads = nil
	syncer.mu.Unlock()

	ctrl.RefreshView(context.Background(), ViewStore)
	assert.Equal(t, []Scope{ScopeRewards}, syncer.loadedScopes())
}

func TestRefreshViewSkippedWhileBlocked(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)
	ctrl.SetReady(true)

	ctrl.BlockInteraction(time.Hour)
	ctrl.RefreshView(context.Background(), ViewDaily)
	assert.Empty(t, syncer.loadedScopes())
	assert.True(t, ctrl.InteractionBlocked())
}

func TestRefreshViewSkippedBeforeReady(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)

	ctrl.RefreshView(context.Background(), ViewSettings)
	assert.Empty(t, syncer.loadedScopes())
}

func TestBlockInteractionExpires(t *testing.T) {
	syncer := newStubSyncer()
	ctrl, _ := newTestController(t, syncer)

	ctrl.BlockInteraction(10 * time.Millisecond)
	assert.True(t, ctrl.InteractionBlocked())
	time.Sleep(30 * time.Millisecond)
	assert.False(t, ctrl.InteractionBlocked())
}
