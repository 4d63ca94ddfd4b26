package familysync

import "encoding/json"

// Scope is a named partition of family state synchronized as one unit.
// Local to remote is always a full snapshot of the scope; remote to local
// only overwrites the fields actually present in the response.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeTasks    Scope = "tasks"
	ScopeRewards  Scope = "rewards"
	ScopeSettings Scope = "settings"
	ScopeActivity Scope = "activity"
)

// SaveScopes are the scopes a client may write. "all" is load-only.
var SaveScopes = []Scope{ScopeTasks, ScopeRewards, ScopeSettings, ScopeActivity}

func (s Scope) ValidForSave() bool {
	switch s {
	case ScopeTasks, ScopeRewards, ScopeSettings, ScopeActivity:
		return true
	}
	return false
}

type TaskCategory string

const (
	TaskCategoryLife     TaskCategory = "LIFE"
	TaskCategoryBehavior TaskCategory = "BEHAVIOR"
	TaskCategoryBonus    TaskCategory = "BONUS"
	TaskCategoryPenalty  TaskCategory = "PENALTY"
)

// Task stars are positive for LIFE/BEHAVIOR/BONUS and negative for PENALTY.
type Task struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Category TaskCategory `json:"category"`
	Stars    int          `json:"stars"`
}

type Reward struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cost  int    `json:"cost"`
	Icon  string `json:"icon"`
}

type TransactionType string

const (
	TransactionEarn    TransactionType = "EARN"
	TransactionSpend   TransactionType = "SPEND"
	TransactionPenalty TransactionType = "PENALTY"
)

type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
}

// ScopeData is the decoded remote response. Field presence drives the merge:
// nil slices/maps and nil balance mean "not in this response, leave local
// state alone". Name/theme follow the original app and only apply when
// non-empty.
type ScopeData struct {
	FamilyId     string              `json:"familyId"`
	UserName     string              `json:"userName"`
	ThemeKey     string              `json:"themeKey"`
	Balance      *int                `json:"balance"`
	Tasks        []Task              `json:"tasks"`
	Rewards      []Reward            `json:"rewards"`
	Logs         map[string][]string `json:"logs"`
	Transactions []Transaction       `json:"transactions"`
}

type SettingsPayload struct {
	UserName string `json:"userName"`
	ThemeKey string `json:"themeKey"`
}

// ActivityPayload bundles the three fields that change together: every
// balance change is driven by a log entry or a transaction.
type ActivityPayload struct {
	Logs         map[string][]string `json:"logs"`
	Balance      *int                `json:"balance"`
	Transactions []Transaction       `json:"transactions"`
}

type SaveRequest struct {
	Scope       Scope           `json:"scope" binding:"required"`
	Data        json.RawMessage `json:"data"`
	LastUpdated int64           `json:"lastUpdated"`
}

type loadResponse struct {
	Data *ScopeData `json:"data"`
}

// View identifies a client screen. Which scopes a view depends on is declared
// here instead of being wired into screen code, so a tab switch can refresh
// exactly the data it shows.
type View string

const (
	ViewDaily    View = "daily"
	ViewStore    View = "store"
	ViewCalendar View = "calendar"
	ViewSettings View = "settings"
)

var ViewScopes = map[View][]Scope{
	ViewDaily:    {ScopeTasks, ScopeActivity},
	ViewStore:    {ScopeRewards},
	ViewCalendar: {ScopeActivity},
	ViewSettings: {ScopeSettings, ScopeTasks, ScopeRewards},
}
