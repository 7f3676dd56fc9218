package models

import (
	"time"

	"textile-backend/internal/floor"
)

type UserRole string

const (
	RoleAdmin           UserRole = "admin"
	RoleFloorSupervisor UserRole = "floor_supervisor"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	// Floor a supervisor is assigned to; empty for admins.
	Floor     floor.Floor `gorm:"size:30"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
