package models

import (
	"github.com/zayar/starsync_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Family{}, &Task{}, &Reward{}, &TaskLog{}, &Transaction{},
	)
	if err != nil {
		config.GetLogger().Panic(err.Error())
	}
}
