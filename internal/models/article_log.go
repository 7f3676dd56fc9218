package models

import (
	"time"

	"textile-backend/internal/floor"

	"gorm.io/datatypes"
)

type ArticleAction string

const (
	ActionArticleCreated        ArticleAction = "article_created"
	ActionQuantityUpdated       ArticleAction = "quantity_updated"
	ActionDefectsRecorded       ArticleAction = "defects_recorded"
	ActionTransferred           ArticleAction = "transferred"
	ActionFloorAdvanced         ArticleAction = "floor_advanced"
	ActionQualityInspection     ArticleAction = "quality_inspection"
	ActionQualityCategory       ArticleAction = "quality_category"
	ActionM2Shifted             ArticleAction = "m2_shifted"
	ActionDefectsWrittenOff     ArticleAction = "defects_written_off"
	ActionFinalQualityConfirmed ArticleAction = "final_quality_confirmed"
	ActionLedgerRepaired        ArticleAction = "ledger_repaired"
)

// ArticleLog is an append-only history row. Rows are never updated; state is
// never derived from them.
type ArticleLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// All rows written by one request share an operation id.
	OperationID string `gorm:"size:36;index" json:"operationId"`

	ArticleID uint `gorm:"index;not null" json:"articleId"`
	OrderID   uint `gorm:"index;not null" json:"orderId"`

	Action ArticleAction `gorm:"size:40;not null" json:"action"`
	Field  string        `gorm:"size:40" json:"field,omitempty"`

	Quantity      int         `json:"quantity"`
	FromFloor     floor.Floor `gorm:"size:30" json:"fromFloor,omitempty"`
	ToFloor       floor.Floor `gorm:"size:30" json:"toFloor,omitempty"`
	PreviousValue int         `json:"previousValue"`
	NewValue      int         `json:"newValue"`
	Remarks       string      `gorm:"type:text" json:"remarks,omitempty"`

	// Ledger state of the touched floors right after the change.
	Details datatypes.JSON `json:"details,omitempty"`

	UserID   uint   `gorm:"index" json:"userId"`
	UserName string `gorm:"size:100" json:"userName"`
}
