package familysync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// How long a completion celebration keeps background refreshes away. Fixed
// duration; it clears on the timer no matter how the save turns out.
const celebrationBlock = 2 * time.Second

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrRewardNotFound    = errors.New("reward not found")
	ErrInsufficientStars = errors.New("not enough stars")
)

// TaskOutcome is what the presentation layer needs to celebrate (or rain on)
// a toggle. The core emits it through OnTaskCompleted instead of rendering
// anything itself.
type TaskOutcome struct {
	Task    Task
	DateKey string
	Points  int
	Penalty bool
}

// App is the collaborator-facing surface consumed by the UI/state holder.
// Every action mutates local state first, so the user's edit always succeeds,
// and then lets the controller schedule the matching scoped save.
type App struct {
	State  *State
	Ctrl   *Controller
	syncer Syncer
	logger *logrus.Logger

	// OnTaskCompleted fires after a completion (not an undo), alongside the
	// interaction block that keeps refreshes from repainting mid-animation.
	OnTaskCompleted func(TaskOutcome)
}

func NewApp(state *State, syncer Syncer, logger *logrus.Logger) *App {
	return &App{
		State:  state,
		Ctrl:   NewController(state, syncer, logger),
		syncer: syncer,
		logger: logger,
	}
}

// Start runs the cold-start load when a family id is already configured.
// Background load: a failure only moves the status flag.
func (a *App) Start(ctx context.Context) {
	if err := a.Ctrl.InitialLoad(ctx); err != nil {
		a.logger.WithFields(logrus.Fields{"funcName": "Start"}).Warn("initial load failed: " + err.Error())
	}
}

// ToggleTask completes a task for the given day, or undoes a completion.
// Balance moves by the task's stars; every move appends an audit transaction,
// undo included.
func (a *App) ToggleTask(taskId string, day time.Time) (*TaskOutcome, error) {
	task, ok := a.findTask(taskId)
	if !ok {
		return nil, ErrTaskNotFound
	}

	dateKey := DateKey(day)
	completed := a.State.LogFor(dateKey)
	idx := indexOf(completed, taskId)

	if idx >= 0 {
		// Undo: drop from the day's set, reverse the stars.
		completed = append(completed[:idx], completed[idx+1:]...)
		a.State.SetLogFor(dateKey, completed)
		a.recordTransaction(-task.Stars, "撤销: "+task.Title, day)
		a.Ctrl.MarkDirty(ScopeActivity)
		return &TaskOutcome{Task: task, DateKey: dateKey, Points: -task.Stars, Penalty: false}, nil
	}

	completed = append(completed, taskId)
	a.State.SetLogFor(dateKey, completed)
	a.recordTransaction(task.Stars, "完成: "+task.Title, day)
	a.Ctrl.MarkDirty(ScopeActivity)

	outcome := TaskOutcome{
		Task:    task,
		DateKey: dateKey,
		Points:  task.Stars,
		Penalty: task.Category == TaskCategoryPenalty,
	}
	a.Ctrl.BlockInteraction(celebrationBlock)
	if a.OnTaskCompleted != nil {
		a.OnTaskCompleted(outcome)
	}
	return &outcome, nil
}

// RedeemReward spends stars on a reward. Rejected without any state change
// when the balance does not cover the cost.
func (a *App) RedeemReward(rewardId string) error {
	reward, ok := a.findReward(rewardId)
	if !ok {
		return ErrRewardNotFound
	}
	if a.State.Balance() < reward.Cost {
		return fmt.Errorf("%w: need %d more", ErrInsufficientStars, reward.Cost-a.State.Balance())
	}
	a.recordSpend(-reward.Cost, "兑换: "+reward.Title)
	a.Ctrl.MarkDirty(ScopeActivity)
	return nil
}

func (a *App) AddTask(title string, category TaskCategory, stars int) Task {
	// PENALTY tasks carry negative stars; normalize the sign for callers.
	if category == TaskCategoryPenalty && stars > 0 {
		stars = -stars
	} else if category != TaskCategoryPenalty && stars < 0 {
		stars = -stars
	}
	task := Task{ID: uuid.NewString(), Title: title, Category: category, Stars: stars}
	a.State.SetTasks(append(a.State.Tasks(), task))
	a.Ctrl.MarkDirty(ScopeTasks)
	return task
}

func (a *App) UpdateTask(task Task) error {
	tasks := a.State.Tasks()
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
			a.State.SetTasks(tasks)
			a.Ctrl.MarkDirty(ScopeTasks)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (a *App) DeleteTask(taskId string) error {
	tasks := a.State.Tasks()
	for i := range tasks {
		if tasks[i].ID == taskId {
			a.State.SetTasks(append(tasks[:i], tasks[i+1:]...))
			a.Ctrl.MarkDirty(ScopeTasks)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (a *App) AddReward(title string, cost int, icon string) Reward {
	reward := Reward{ID: uuid.NewString(), Title: title, Cost: cost, Icon: icon}
	a.State.SetRewards(append(a.State.Rewards(), reward))
	a.Ctrl.MarkDirty(ScopeRewards)
	return reward
}

func (a *App) DeleteReward(rewardId string) error {
	rewards := a.State.Rewards()
	for i := range rewards {
		if rewards[i].ID == rewardId {
			a.State.SetRewards(append(rewards[:i], rewards[i+1:]...))
			a.Ctrl.MarkDirty(ScopeRewards)
			return nil
		}
	}
	return ErrRewardNotFound
}

func (a *App) SetUserName(name string) {
	a.State.SetUserName(name)
	a.Ctrl.MarkDirty(ScopeSettings)
}

func (a *App) SetThemeKey(theme string) {
	a.State.SetThemeKey(theme)
	a.Ctrl.MarkDirty(ScopeSettings)
}

// ManualSaveAll pushes every scope sequentially (one write at a time keeps
// the backend's delete+reinsert batches from contending). Silent no-op
// without a family id; sync is opt-in.
func (a *App) ManualSaveAll(ctx context.Context) error {
	familyId := a.State.FamilyId()
	if familyId == "" {
		return nil
	}

	a.Ctrl.setStatus(StatusSyncing)
	for _, scope := range []Scope{ScopeSettings, ScopeTasks, ScopeRewards, ScopeActivity} {
		ok, err := a.syncer.Save(ctx, familyId, scope, a.State.Snapshot(scope))
		if err != nil {
			a.Ctrl.setStatus(StatusError)
			return err
		}
		if !ok {
			a.Ctrl.setStatus(StatusError)
			return fmt.Errorf("save %s failed after retries", scope)
		}
	}
	a.Ctrl.setStatus(StatusSaved)
	return nil
}

// ManualLoad is the user-initiated full refresh. Foreground: failures
// propagate so the caller can show them. found=false with a nil error means
// the family has nothing remote yet.
func (a *App) ManualLoad(ctx context.Context) (found bool, err error) {
	familyId := a.State.FamilyId()
	if familyId == "" {
		return false, nil
	}

	a.Ctrl.setStatus(StatusSyncing)
	data, err := a.syncer.Load(ctx, familyId, ScopeAll)
	if err != nil {
		a.Ctrl.setStatus(StatusError)
		return false, err
	}
	if data == nil {
		a.Ctrl.SetReady(true)
		a.Ctrl.setStatus(StatusIdle)
		return false, nil
	}
	a.State.Apply(data)
	a.Ctrl.SetReady(true)
	a.Ctrl.setStatus(StatusSaved)
	return true, nil
}

// CreateFamily mints a fresh family id and pushes the current local state up
// as its first remote snapshot.
func (a *App) CreateFamily(ctx context.Context) (string, error) {
	familyId := GenerateFamilyID()
	a.State.SetFamilyId(familyId)
	a.Ctrl.SetReady(true)
	if err := a.ManualSaveAll(ctx); err != nil {
		return familyId, err
	}
	return familyId, nil
}

// StartAdventure is the onboarding flow: name the child, seed the starter
// catalog, create the family.
func (a *App) StartAdventure(ctx context.Context, name string) (string, error) {
	a.State.SetUserName(name)
	a.State.SetTasks(DefaultTasks())
	a.State.SetRewards(DefaultRewards())
	return a.CreateFamily(ctx)
}

// JoinFamily switches this device to another family id. The ready gate drops
// for the whole reload so no stale local write can fire mid-flight; it only
// comes back up once the remote state (or "nothing yet") has landed.
func (a *App) JoinFamily(ctx context.Context, familyId string) error {
	a.Ctrl.SetReady(false)
	a.State.SetFamilyId(familyId)

	a.Ctrl.setStatus(StatusSyncing)
	data, err := a.syncer.Load(ctx, familyId, ScopeAll)
	if err != nil {
		a.Ctrl.setStatus(StatusError)
		return err
	}
	a.State.Apply(data)
	a.Ctrl.SetReady(true)
	if data != nil {
		a.Ctrl.setStatus(StatusSaved)
	} else {
		a.Ctrl.setStatus(StatusIdle)
	}
	return nil
}

// Disconnect turns sync off; local data stays.
func (a *App) Disconnect() {
	a.Ctrl.SetReady(false)
	a.State.SetFamilyId("")
	a.Ctrl.setStatus(StatusIdle)
}

// ResetData wipes local state and persisted keys.
func (a *App) ResetData() {
	a.Ctrl.SetReady(false)
	a.State.Reset()
	a.Ctrl.setStatus(StatusIdle)
}

func (a *App) findTask(taskId string) (Task, bool) {
	for _, task := range a.State.Tasks() {
		if task.ID == taskId {
			return task, true
		}
	}
	return Task{}, false
}

func (a *App) findReward(rewardId string) (Reward, bool) {
	for _, reward := range a.State.Rewards() {
		if reward.ID == rewardId {
			return reward, true
		}
	}
	return Reward{}, false
}

// recordTransaction classifies by sign: earning is positive, losses that are
// not redemptions are penalties. The transaction date keeps the given
// calendar day but the current clock time.
func (a *App) recordTransaction(amount int, description string, day time.Time) {
	now := time.Now()
	txDate := time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, time.Local)

	txType := TransactionPenalty
	if amount > 0 {
		txType = TransactionEarn
	}
	a.State.AddTransaction(Transaction{
		ID:          uuid.NewString(),
		Date:        txDate.Format(time.RFC3339),
		Description: description,
		Amount:      amount,
		Type:        txType,
	})
}

func (a *App) recordSpend(amount int, description string) {
	a.State.AddTransaction(Transaction{
		ID:          uuid.NewString(),
		Date:        time.Now().Format(time.RFC3339),
		Description: description,
		Amount:      amount,
		Type:        TransactionSpend,
	})
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
