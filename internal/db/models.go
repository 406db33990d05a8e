package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room is one persisted room record: the full engine state serialized as
// JSON, with the join code lifted into an indexed column for lookups.
type Room struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Code      string         `gorm:"size:8;uniqueIndex;not null"`
	Status    string         `gorm:"size:32;not null"`
	Data      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// RoomLock is an advisory lease: a conditional insert acquires it, a
// token-checked delete releases it, and ExpiresAt bounds a lost holder.
type RoomLock struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Token     string    `gorm:"size:36;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}
