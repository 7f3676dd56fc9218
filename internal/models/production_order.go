package models

import (
	"time"

	"textile-backend/internal/floor"
)

// ProductionOrder owns articles. CurrentFloor mirrors the floor of the most
// recently advanced article and is updated best-effort.
type ProductionOrder struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	OrderNumber  string      `gorm:"size:50;uniqueIndex;not null" json:"orderNumber"`
	BuyerName    string      `gorm:"size:100" json:"buyerName"`
	CurrentFloor floor.Floor `gorm:"size:30" json:"currentFloor"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	Articles []Article `gorm:"foreignKey:OrderID" json:"articles,omitempty"`
}
