package store

import (
	"strconv"

	"github.com/kbukum/todoapi/database"
)

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// User is an account. HashedPassword never leaves the store layer in a
// response.
type User struct {
	database.Model
	Email          string `gorm:"size:255;uniqueIndex;not null"`
	Username       string `gorm:"size:100;uniqueIndex;not null"`
	FullName       string `gorm:"size:255;not null"`
	HashedPassword string `gorm:"size:255;not null"`
	IsActive       bool   `gorm:"not null;default:true"`
	Todos          []Todo `gorm:"constraint:OnDelete:CASCADE"`
}

// Active implements auth.Principal.
func (u *User) Active() bool { return u.IsActive }

// Subject is the token subject for u.
func (u *User) Subject() string { return strconv.FormatUint(uint64(u.ID), 10) }

// Todo belongs to exactly one user.
type Todo struct {
	database.Model
	Title       string   `gorm:"size:255;not null"`
	Description *string  `gorm:"type:text"`
	IsCompleted bool     `gorm:"not null;default:false"`
	Priority    Priority `gorm:"size:20;not null;default:medium"`
	UserID      uint     `gorm:"not null;index"`
}

// Models lists every model for auto-migration, parents first.
func Models() []interface{} {
	return []interface{}{&User{}, &Todo{}}
}
