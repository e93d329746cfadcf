package models

import "time"

// StorageEntry is one JSON item of a local storage namespace.
type StorageEntry struct {
	StorageKey string    `gorm:"primaryKey;size:100"`
	ItemKey    string    `gorm:"primaryKey;size:255"`
	Data       string    `gorm:"type:text;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
