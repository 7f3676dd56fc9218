package models

import (
	"time"

	"textile-backend/internal/floor"
)

type ArticleStatus string

const (
	ArticleStatusPending    ArticleStatus = "Pending"
	ArticleStatusInProgress ArticleStatus = "In Progress"
	ArticleStatusCompleted  ArticleStatus = "Completed"
)

type RepairStatus string

const (
	RepairStatusNone        RepairStatus = ""
	RepairStatusNotRequired RepairStatus = "Not Required"
	RepairStatusInReview    RepairStatus = "In Review"
	RepairStatusRepaired    RepairStatus = "Repaired"
	RepairStatusRejected    RepairStatus = "Rejected"
)

// Valid reports whether s is a known repair status (empty is allowed).
func (s RepairStatus) Valid() bool {
	switch s {
	case RepairStatusNone, RepairStatusNotRequired, RepairStatusInReview, RepairStatusRepaired, RepairStatusRejected:
		return true
	}
	return false
}

// FloorLedger is the per-floor quantity bucket of an article.
//
// The M1-M4 buckets, M1Transferred, WrittenOff and the repair fields are only
// meaningful on inspection floors. Knitting reuses M4Quantity as a plain
// defect counter.
type FloorLedger struct {
	Received    int `json:"received"`
	Completed   int `json:"completed"`
	Transferred int `json:"transferred"`
	Remaining   int `json:"remaining"`

	M1Quantity    int          `json:"m1Quantity,omitempty"`
	M2Quantity    int          `json:"m2Quantity,omitempty"`
	M3Quantity    int          `json:"m3Quantity,omitempty"`
	M4Quantity    int          `json:"m4Quantity,omitempty"`
	M1Transferred int          `json:"m1Transferred,omitempty"`
	WrittenOff    int          `json:"writtenOff,omitempty"`
	RepairStatus  RepairStatus `json:"repairStatus,omitempty"`
	RepairRemarks string       `json:"repairRemarks,omitempty"`
}

// QualityTotal is m1+m2+m3+m4.
func (l *FloorLedger) QualityTotal() int {
	return l.M1Quantity + l.M2Quantity + l.M3Quantity + l.M4Quantity
}

// RecomputeRemaining applies remaining = max(0, received - completed).
func (l *FloorLedger) RecomputeRemaining() {
	l.Remaining = l.Received - l.Completed
	if l.Remaining < 0 {
		l.Remaining = 0
	}
}

// FloorQuantities maps each floor of the article's sequence to its ledger.
type FloorQuantities map[floor.Floor]*FloorLedger

// Article is one unit of manufacturing work travelling across floors.
// FloorQuantities is stored as a single jsonb document so the whole aggregate
// is written in one statement.
type Article struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	OrderID         uint              `gorm:"index;not null" json:"orderId"`
	ArticleNumber   string            `gorm:"size:50;index;not null" json:"articleNumber"`
	PlannedQuantity int               `gorm:"not null" json:"plannedQuantity"`
	LinkingType     floor.LinkingType `gorm:"size:30;not null" json:"linkingType"`

	CurrentFloor floor.Floor   `gorm:"size:30;not null" json:"currentFloor"`
	Status       ArticleStatus `gorm:"size:20;not null;default:Pending" json:"status"`
	Progress     int           `gorm:"not null;default:0" json:"progress"`

	FloorQuantities FloorQuantities `gorm:"type:jsonb;serializer:json" json:"floorQuantities"`

	FinalQualityConfirmed bool   `gorm:"default:false" json:"finalQualityConfirmed"`
	Remarks               string `gorm:"type:text" json:"remarks"`
	MachineID             *uint  `json:"machineId,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Floors resolves the article's floor sequence from its linking type.
func (a *Article) Floors() ([]floor.Floor, error) {
	return floor.Sequence(a.LinkingType)
}

// Ledger returns the ledger of f, creating a zeroed one if it is missing.
func (a *Article) Ledger(f floor.Floor) *FloorLedger {
	if a.FloorQuantities == nil {
		a.FloorQuantities = FloorQuantities{}
	}
	l, ok := a.FloorQuantities[f]
	if !ok || l == nil {
		l = &FloorLedger{}
		a.FloorQuantities[f] = l
	}
	return l
}

// Clone returns a deep copy; ledgers are not shared with the original.
func (a *Article) Clone() *Article {
	c := *a
	if a.MachineID != nil {
		id := *a.MachineID
		c.MachineID = &id
	}
	if a.FloorQuantities != nil {
		c.FloorQuantities = make(FloorQuantities, len(a.FloorQuantities))
		for f, l := range a.FloorQuantities {
			if l == nil {
				continue
			}
			cp := *l
			c.FloorQuantities[f] = &cp
		}
	}
	return &c
}
