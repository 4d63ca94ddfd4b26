package models

import (
	"time"
)

type Reward struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FamilyId  string    `gorm:"primaryKey;size:64" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Cost      int       `gorm:"not null" json:"cost"`
	Icon      string    `gorm:"size:50" json:"icon"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
