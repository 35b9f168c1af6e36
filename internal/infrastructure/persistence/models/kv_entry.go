package models

import "time"

// KVEntry is one persisted key of the sheet state
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;type:varchar(191);primaryKey"`
	Value     string    `gorm:"column:entry_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KVEntry) TableName() string {
	return "kv_entries"
}
