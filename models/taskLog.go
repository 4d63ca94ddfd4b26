package models

import (
	"time"
)

// TaskLog is one completed task on one calendar day. The client-facing shape
// is a map of date key (YYYY-MM-DD) to the list of completed task ids; rows
// are flattened here and reassembled on read.
type TaskLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	FamilyId  string    `gorm:"index;size:64;not null" json:"-"`
	DateKey   string    `gorm:"size:10;not null" json:"dateKey"`
	TaskId    string    `gorm:"size:64;not null" json:"taskId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}
