package models

import (
	"gorm.io/gorm"
)

type Admin struct {
	gorm.Model
	Username  string  `gorm:"index"`
	DiscordID *string `gorm:"uniqueIndex"`
	Email     string
	Avatar    string
}
