package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"textile-backend/internal/floor"
	"textile-backend/internal/ledger"
	"textile-backend/internal/models"
)

// Actor is the user an operation is attributed to.
type Actor struct {
	UserID   uint
	UserName string
}

// Sink receives finished log rows. Rows are appended, never updated.
type Sink interface {
	Append(ctx context.Context, entries []models.ArticleLog) error
}

// NewOperationID returns the id shared by every row of one request.
func NewOperationID() string {
	return uuid.NewString()
}

// BuildEntries turns the changes of one operation into log rows. Each row
// carries the ledgers of the floors it touched as they are after the
// operation.
func BuildEntries(a *models.Article, changes []ledger.Change, actor Actor, operationID string) []models.ArticleLog {
	if len(changes) == 0 {
		return nil
	}
	entries := make([]models.ArticleLog, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, models.ArticleLog{
			OperationID:   operationID,
			ArticleID:     a.ID,
			OrderID:       a.OrderID,
			Action:        ch.Action,
			Field:         ch.Field,
			Quantity:      ch.Quantity,
			FromFloor:     ch.Floor,
			ToFloor:       ch.ToFloor,
			PreviousValue: ch.Previous,
			NewValue:      ch.New,
			Remarks:       ch.Remarks,
			Details:       details(a, ch.Floor, ch.ToFloor),
			UserID:        actor.UserID,
			UserName:      actor.UserName,
		})
	}
	return entries
}

// BuildRepairEntries records the corrections made by ledger repair.
func BuildRepairEntries(a *models.Article, corrections []ledger.Correction, actor Actor, operationID string) []models.ArticleLog {
	if len(corrections) == 0 {
		return nil
	}
	entries := make([]models.ArticleLog, 0, len(corrections))
	for _, c := range corrections {
		entries = append(entries, models.ArticleLog{
			OperationID:   operationID,
			ArticleID:     a.ID,
			OrderID:       a.OrderID,
			Action:        models.ActionLedgerRepaired,
			Field:         c.Field,
			Quantity:      c.New - c.Previous,
			FromFloor:     c.Floor,
			PreviousValue: c.Previous,
			NewValue:      c.New,
			Remarks:       c.Reason,
			Details:       details(a, c.Floor, ""),
			UserID:        actor.UserID,
			UserName:      actor.UserName,
		})
	}
	return entries
}

func details(a *models.Article, floors ...floor.Floor) datatypes.JSON {
	snap := make(map[floor.Floor]models.FloorLedger, len(floors))
	for _, f := range floors {
		if f == "" {
			continue
		}
		if l, ok := a.FloorQuantities[f]; ok && l != nil {
			snap[f] = *l
		}
	}
	if len(snap) == 0 {
		return nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// DBSink writes log rows to the article_logs table.
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Append(ctx context.Context, entries []models.ArticleLog) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&entries, 100).Error; err != nil {
		return fmt.Errorf("article log could not be written: %w", err)
	}
	return nil
}

// Filter narrows a log listing. Zero values match everything.
type Filter struct {
	OrderID uint
	Action  models.ArticleAction
	Floor   floor.Floor
	UserID  uint
	Limit   int
}

// List returns the history of one article, newest first.
func (s *DBSink) List(ctx context.Context, articleID uint, f Filter) ([]models.ArticleLog, error) {
	q := s.db.WithContext(ctx).Model(&models.ArticleLog{}).Where("article_id = ?", articleID)
	if f.OrderID != 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Floor != "" {
		q = q.Where("from_floor = ? OR to_floor = ?", f.Floor, f.Floor)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.ArticleLog
	if err := q.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("article logs could not be read: %w", err)
	}
	return logs, nil
}
