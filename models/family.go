package models

import (
	"time"
)

const DefaultThemeKey = "lemon"

// Family is the per-family settings row. One row per family id; the scalar
// sync fields (user name, theme, star balance) live directly on it. The row is
// created implicitly on the first save for an unknown family id, so a save
// never fails just because the family was never "registered".
type Family struct {
	FamilyId  string    `gorm:"primaryKey;size:64" json:"familyId"`
	UserName  string    `gorm:"size:100" json:"userName"`
	ThemeKey  string    `gorm:"size:50" json:"themeKey"`
	Balance   int       `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
