package models

import (
	"time"
)

const (
	TransactionTypeEarn    = "EARN"
	TransactionTypeSpend   = "SPEND"
	TransactionTypePenalty = "PENALTY"
)

type Transaction struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	FamilyId    string    `gorm:"primaryKey;size:64" json:"-"`
	Date        string    `gorm:"size:40;not null" json:"date"`
	Description string    `gorm:"size:255" json:"description"`
	Amount      int       `gorm:"not null" json:"amount"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}
