package audit

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// Reader is the read side of the article history.
type Reader interface {
	List(ctx context.Context, articleID uint, f Filter) ([]models.ArticleLog, error)
}

type ArticleLogResponse struct {
	ID            uint                 `json:"id"`
	CreatedAt     string               `json:"createdAt"`
	OperationID   string               `json:"operationId"`
	Action        models.ArticleAction `json:"action"`
	Field         string               `json:"field,omitempty"`
	Quantity      int                  `json:"quantity"`
	FromFloor     string               `json:"fromFloor,omitempty"`
	ToFloor       string               `json:"toFloor,omitempty"`
	PreviousValue int                  `json:"previousValue"`
	NewValue      int                  `json:"newValue"`
	Remarks       string               `json:"remarks,omitempty"`
	Details       any                  `json:"details,omitempty"`
	UserID        uint                 `json:"userId"`
	UserName      string               `json:"userName"`
}

// GET /api/orders/:orderId/articles/:articleId/logs?action=transferred&floor=checking&user_id=3&limit=50
func ListArticleLogsHandler(r Reader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := c.ParamsInt("orderId")
		if err != nil || orderID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}
		articleID, err := c.ParamsInt("articleId")
		if err != nil || articleID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid article id")
		}

		f := Filter{
			OrderID: uint(orderID),
			Action:  models.ArticleAction(c.Query("action")),
			Limit:   c.QueryInt("limit", 0),
		}
		if fl := c.Query("floor"); fl != "" {
			parsed, err := floor.Parse(fl)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			f.Floor = parsed
		}
		if uidStr := c.Query("user_id"); uidStr != "" {
			var uid uint
			if _, err := fmt.Sscan(uidStr, &uid); err == nil && uid > 0 {
				f.UserID = uid
			}
		}

		logs, err := r.List(c.UserContext(), uint(articleID), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "article logs could not be listed")
		}

		resp := make([]ArticleLogResponse, 0, len(logs))
		for _, log := range logs {
			var details any
			if len(log.Details) > 0 {
				details = log.Details
			}
			resp = append(resp, ArticleLogResponse{
				ID:            log.ID,
				CreatedAt:     log.CreatedAt.Format("2006-01-02 15:04:05"),
				OperationID:   log.OperationID,
				Action:        log.Action,
				Field:         log.Field,
				Quantity:      log.Quantity,
				FromFloor:     labelOf(log.FromFloor),
				ToFloor:       labelOf(log.ToFloor),
				PreviousValue: log.PreviousValue,
				NewValue:      log.NewValue,
				Remarks:       log.Remarks,
				Details:       details,
				UserID:        log.UserID,
				UserName:      log.UserName,
			})
		}
		return c.JSON(resp)
	}
}

func labelOf(f floor.Floor) string {
	if f == "" {
		return ""
	}
	return f.Label()
}
