package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sync scopes. Each scope is replaced as a whole by the latest client
// snapshot (last-writer-wins); there is no per-item merge. Within the
// activity scope the three sub-fields are individually optional.
const (
	ScopeAll      = "all"
	ScopeTasks    = "tasks"
	ScopeRewards  = "rewards"
	ScopeSettings = "settings"
	ScopeActivity = "activity"
)

// transactionReadLimit caps how much history a load returns; the client keeps
// its own full history locally.
const transactionReadLimit = 100

// ErrInvalidPayload marks a save body that does not match the scope's shape.
var ErrInvalidPayload = errors.New("invalid payload")

func ValidLoadScope(scope string) bool {
	switch scope {
	case ScopeAll, ScopeTasks, ScopeRewards, ScopeSettings, ScopeActivity:
		return true
	}
	return false
}

func ValidSaveScope(scope string) bool {
	return scope != ScopeAll && ValidLoadScope(scope)
}

type settingsPayload struct {
	UserName string `json:"userName"`
	ThemeKey string `json:"themeKey"`
}

type activityPayload struct {
	Logs         map[string][]string `json:"logs"`
	Balance      *int                `json:"balance"`
	Transactions []Transaction       `json:"transactions"`
}

// LoadScope assembles the requested scope's fields for one family. Returns
// (nil, nil) when the family id has no record yet; callers answer {data:null}
// for that case rather than an error.
func LoadScope(db *gorm.DB, familyId string, scope string) (map[string]any, error) {
	var family Family
	err := db.Where("family_id = ?", familyId).Take(&family).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	themeKey := family.ThemeKey
	if themeKey == "" {
		themeKey = DefaultThemeKey
	}

	data := map[string]any{}
	if scope == ScopeAll || scope == ScopeSettings {
		data["userName"] = family.UserName
		data["themeKey"] = themeKey
	}
	if scope == ScopeAll {
		data["familyId"] = family.FamilyId
	}
	if scope == ScopeAll || scope == ScopeTasks {
		tasks, err := loadTasks(db, familyId)
		if err != nil {
			return nil, err
		}
		data["tasks"] = tasks
	}
	if scope == ScopeAll || scope == ScopeRewards {
		rewards, err := loadRewards(db, familyId)
		if err != nil {
			return nil, err
		}
		data["rewards"] = rewards
	}
	if scope == ScopeAll || scope == ScopeActivity {
		logs, err := loadLogs(db, familyId)
		if err != nil {
			return nil, err
		}
		transactions, err := loadTransactions(db, familyId)
		if err != nil {
			return nil, err
		}
		data["balance"] = family.Balance
		data["logs"] = logs
		data["transactions"] = transactions
	}
	return data, nil
}

// SaveScope persists one scope snapshot for a family. The family row is
// upserted first so the very first save for a fresh id succeeds. Collection
// scopes are replaced wholesale (delete all rows for the family, reinsert the
// snapshot) inside one transaction; scalar fields are column updates.
func SaveScope(db *gorm.DB, familyId string, scope string, data json.RawMessage) error {
	if !ValidSaveScope(scope) {
		return fmt.Errorf("unknown scope %q", scope)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Family{FamilyId: familyId, ThemeKey: DefaultThemeKey}).Error; err != nil {
			return err
		}

		switch scope {
		case ScopeTasks:
			var tasks []Task
			if len(data) > 0 {
				if err := json.Unmarshal(data, &tasks); err != nil {
					return fmt.Errorf("%w: tasks: %v", ErrInvalidPayload, err)
				}
			}
			return replaceTasks(tx, familyId, tasks)

		case ScopeRewards:
			var rewards []Reward
			if len(data) > 0 {
				if err := json.Unmarshal(data, &rewards); err != nil {
					return fmt.Errorf("%w: rewards: %v", ErrInvalidPayload, err)
				}
			}
			return replaceRewards(tx, familyId, rewards)

		case ScopeSettings:
			var settings settingsPayload
			if err := json.Unmarshal(data, &settings); err != nil {
				return fmt.Errorf("%w: settings: %v", ErrInvalidPayload, err)
			}
			return tx.Model(&Family{}).Where("family_id = ?", familyId).
				Updates(map[string]interface{}{
					"user_name": settings.UserName,
					"theme_key": settings.ThemeKey,
				}).Error

		case ScopeActivity:
			var activity activityPayload
			if err := json.Unmarshal(data, &activity); err != nil {
				return fmt.Errorf("%w: activity: %v", ErrInvalidPayload, err)
			}
			if activity.Balance != nil {
				if err := tx.Model(&Family{}).Where("family_id = ?", familyId).
					Update("balance", *activity.Balance).Error; err != nil {
					return err
				}
			}
			if activity.Logs != nil {
				if err := replaceLogs(tx, familyId, activity.Logs); err != nil {
					return err
				}
			}
			if activity.Transactions != nil {
				if err := replaceTransactions(tx, familyId, activity.Transactions); err != nil {
					return err
				}
			}
			return nil
		}
		return nil
	})
}

func loadTasks(db *gorm.DB, familyId string) ([]Task, error) {
	tasks := []Task{}
	err := db.Where("family_id = ?", familyId).Find(&tasks).Error
	return tasks, err
}

func loadRewards(db *gorm.DB, familyId string) ([]Reward, error) {
	rewards := []Reward{}
	err := db.Where("family_id = ?", familyId).Find(&rewards).Error
	return rewards, err
}

func loadLogs(db *gorm.DB, familyId string) (map[string][]string, error) {
	var rows []TaskLog
	if err := db.Where("family_id = ?", familyId).Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := map[string][]string{}
	for _, row := range rows {
		logs[row.DateKey] = append(logs[row.DateKey], row.TaskId)
	}
	return logs, nil
}

func loadTransactions(db *gorm.DB, familyId string) ([]Transaction, error) {
	transactions := []Transaction{}
	err := db.Where("family_id = ?", familyId).
		Order("date DESC").Limit(transactionReadLimit).
		Find(&transactions).Error
	return transactions, err
}

func replaceTasks(tx *gorm.DB, familyId string, tasks []Task) error {
	if err := tx.Where("family_id = ?", familyId).Delete(&Task{}).Error; err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	for i := range tasks {
		tasks[i].FamilyId = familyId
	}
	return tx.Create(&tasks).Error
}

func replaceRewards(tx *gorm.DB, familyId string, rewards []Reward) error {
	if err := tx.Where("family_id = ?", familyId).Delete(&Reward{}).Error; err != nil {
		return err
	}
	if len(rewards) == 0 {
		return nil
	}
	for i := range rewards {
		rewards[i].FamilyId = familyId
	}
	return tx.Create(&rewards).Error
}

func replaceLogs(tx *gorm.DB, familyId string, logs map[string][]string) error {
	if err := tx.Where("family_id = ?", familyId).Delete(&TaskLog{}).Error; err != nil {
		return err
	}
	var rows []TaskLog
	for dateKey, taskIds := range logs {
		for _, taskId := range taskIds {
			rows = append(rows, TaskLog{FamilyId: familyId, DateKey: dateKey, TaskId: taskId})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func replaceTransactions(tx *gorm.DB, familyId string, transactions []Transaction) error {
	if err := tx.Where("family_id = ?", familyId).Delete(&Transaction{}).Error; err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}
	for i := range transactions {
		transactions[i].FamilyId = familyId
	}
	return tx.Create(&transactions).Error
}
