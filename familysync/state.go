package familysync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// KV is the local persistence port: one key per top-level field, written on
// every local mutation regardless of remote sync cadence. Injected once at
// startup instead of being reached for ambiently.
type KV interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
}

// Local storage keys, one per top-level field.
const (
	kvKeyTasks        = "app_tasks"
	kvKeyRewards      = "app_rewards"
	kvKeyLogs         = "app_logs"
	kvKeyBalance      = "app_balance"
	kvKeyTransactions = "app_transactions"
	kvKeyUserName     = "app_username"
	kvKeyTheme        = "app_theme"
	kvKeyFamilyId     = "app_family_id"
)

var allKVKeys = []string{
	kvKeyTasks, kvKeyRewards, kvKeyLogs, kvKeyBalance,
	kvKeyTransactions, kvKeyUserName, kvKeyTheme, kvKeyFamilyId,
}

// DirStore is a file-per-key KV implementation.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *DirStore) Get(key string) (string, bool) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *DirStore) Set(key string, value string) error {
	return os.WriteFile(s.path(key), []byte(value), 0o644)
}

func (s *DirStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemKV is an in-memory KV, used by tests and ephemeral sessions.
type MemKV struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string]string{}}
}

func (s *MemKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemKV) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// DateKey derives the local calendar date key used to index daily logs.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// State is the local, persisted-on-write store of family data, partitioned
// into sync scopes. It is the source of truth on this device: remote sync
// failures never roll it back.
type State struct {
	mu     sync.Mutex
	kv     KV
	logger *logrus.Logger

	familyId     string
	userName     string
	themeKey     string
	tasks        []Task
	rewards      []Reward
	logs         map[string][]string
	balance      int
	transactions []Transaction
}

// NewState loads the persisted fields from the KV port. Missing or corrupt
// keys fall back to zero values; a fresh install simply starts empty.
func NewState(kv KV, logger *logrus.Logger) *State {
	s := &State{
		kv:       kv,
		logger:   logger,
		themeKey: "lemon",
		logs:     map[string][]string{},
	}

	if v, ok := kv.Get(kvKeyFamilyId); ok {
		s.familyId = v
	}
	if v, ok := kv.Get(kvKeyUserName); ok {
		s.userName = v
	}
	if v, ok := kv.Get(kvKeyTheme); ok && v != "" {
		s.themeKey = v
	}
	if v, ok := kv.Get(kvKeyBalance); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.balance = n
		}
	}
	readJSON(kv, kvKeyTasks, &s.tasks)
	readJSON(kv, kvKeyRewards, &s.rewards)
	readJSON(kv, kvKeyLogs, &s.logs)
	readJSON(kv, kvKeyTransactions, &s.transactions)
	if s.logs == nil {
		s.logs = map[string][]string{}
	}
	return s
}

func readJSON(kv KV, key string, dest any) {
	v, ok := kv.Get(key)
	if !ok || v == "" {
		return
	}
	_ = json.Unmarshal([]byte(v), dest)
}

func (s *State) persistJSON(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": key}).Error("persist encode failed: " + err.Error())
		return
	}
	if err := s.kv.Set(key, string(b)); err != nil {
		s.logger.WithFields(logrus.Fields{"key": key}).Error("persist write failed: " + err.Error())
	}
}

func (s *State) persistString(key string, value string) {
	if err := s.kv.Set(key, value); err != nil {
		s.logger.WithFields(logrus.Fields{"key": key}).Error("persist write failed: " + err.Error())
	}
}

// --- Reads ---

func (s *State) FamilyId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.familyId
}

func (s *State) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

func (s *State) ThemeKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.themeKey
}

func (s *State) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *State) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

func (s *State) Rewards() []Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reward(nil), s.rewards...)
}

func (s *State) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transaction(nil), s.transactions...)
}

// LogFor returns the completed task ids for one date key.
func (s *State) LogFor(dateKey string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logs[dateKey]...)
}

func (s *State) Logs() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLogs(s.logs)
}

// --- Mutations (each persists its own key) ---

func (s *State) SetFamilyId(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.familyId = id
	s.persistString(kvKeyFamilyId, id)
}

func (s *State) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userName = name
	s.persistString(kvKeyUserName, name)
}

func (s *State) SetThemeKey(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themeKey = theme
	s.persistString(kvKeyTheme, theme)
}

func (s *State) SetTasks(tasks []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]Task(nil), tasks...)
	s.persistJSON(kvKeyTasks, s.tasks)
}

func (s *State) SetRewards(rewards []Reward) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards = append([]Reward(nil), rewards...)
	s.persistJSON(kvKeyRewards, s.rewards)
}

// SetLogFor replaces one date's completed set. An emptied set stays as an
// entry; it renders the same as an absent one.
func (s *State) SetLogFor(dateKey string, taskIds []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[dateKey] = append([]string(nil), taskIds...)
	s.persistJSON(kvKeyLogs, s.logs)
}

// AddTransaction applies a signed balance delta and appends the matching
// audit transaction. The transaction list is append-only locally, undo
// included; balance always equals the running sum of amounts.
func (s *State) AddTransaction(tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += tx.Amount
	s.transactions = append([]Transaction{tx}, s.transactions...)
	s.persistString(kvKeyBalance, strconv.Itoa(s.balance))
	s.persistJSON(kvKeyTransactions, s.transactions)
}

// Reset clears every field and persisted key (local "start over").
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.familyId = ""
	s.userName = ""
	s.themeKey = "lemon"
	s.tasks = nil
	s.rewards = nil
	s.logs = map[string][]string{}
	s.balance = 0
	s.transactions = nil
	for _, key := range allKVKeys {
		if err := s.kv.Delete(key); err != nil {
			s.logger.WithFields(logrus.Fields{"key": key}).Error("persist delete failed: " + err.Error())
		}
	}
}

// --- Scope serializer ---

// Snapshot returns the full wire payload for one scope: the array for
// tasks/rewards, the object for settings/activity. Always the complete
// current slice of that scope, never a diff.
func (s *State) Snapshot(scope Scope) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch scope {
	case ScopeTasks:
		return append([]Task(nil), s.tasks...)
	case ScopeRewards:
		return append([]Reward(nil), s.rewards...)
	case ScopeSettings:
		return SettingsPayload{UserName: s.userName, ThemeKey: s.themeKey}
	case ScopeActivity:
		balance := s.balance
		return ActivityPayload{
			Logs:         copyLogs(s.logs),
			Balance:      &balance,
			Transactions: append([]Transaction(nil), s.transactions...),
		}
	}
	return nil
}

// Apply merges a remote response into local state. Only fields present in the
// response overwrite; a scoped or partial response never blanks out unrelated
// local fields. Present collections replace their local counterparts verbatim.
func (s *State) Apply(data *ScopeData) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Tasks != nil {
		s.tasks = append([]Task(nil), data.Tasks...)
		s.persistJSON(kvKeyTasks, s.tasks)
	}
	if data.Rewards != nil {
		s.rewards = append([]Reward(nil), data.Rewards...)
		s.persistJSON(kvKeyRewards, s.rewards)
	}
	if data.Logs != nil {
		s.logs = copyLogs(data.Logs)
		s.persistJSON(kvKeyLogs, s.logs)
	}
	if data.Balance != nil {
		s.balance = *data.Balance
		s.persistString(kvKeyBalance, strconv.Itoa(s.balance))
	}
	if data.Transactions != nil {
		s.transactions = append([]Transaction(nil), data.Transactions...)
		s.persistJSON(kvKeyTransactions, s.transactions)
	}
	if data.UserName != "" {
		s.userName = data.UserName
		s.persistString(kvKeyUserName, s.userName)
	}
	if data.ThemeKey != "" {
		s.themeKey = data.ThemeKey
		s.persistString(kvKeyTheme, s.themeKey)
	}
}

func copyLogs(logs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(logs))
	for dateKey, taskIds := range logs {
		out[dateKey] = append([]string(nil), taskIds...)
	}
	return out
}
