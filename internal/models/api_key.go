package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets an unattended device, usually a door scanner, act as the
// admin that issued it.
type APIKey struct {
	gorm.Model
	AdminID    uint `gorm:"index"`
	Admin      Admin
	Key        string `gorm:"uniqueIndex"`
	Label      string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
}

func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Hint is the tail of the key, enough to tell keys apart in a listing.
func (k APIKey) Hint() string {
	if len(k.Key) <= 4 {
		return k.Key
	}
	return "..." + k.Key[len(k.Key)-4:]
}
