package models

import (
	"time"
)

// Task categories. PENALTY tasks carry negative stars.
const (
	TaskCategoryLife     = "LIFE"
	TaskCategoryBehavior = "BEHAVIOR"
	TaskCategoryBonus    = "BONUS"
	TaskCategoryPenalty  = "PENALTY"
)

type Task struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FamilyId  string    `gorm:"primaryKey;size:64" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Category  string    `gorm:"size:20;not null" json:"category"`
	Stars     int       `gorm:"not null" json:"stars"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
