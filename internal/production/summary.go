package production

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// FloorTotals adds up one floor's ledgers across an order's articles.
type FloorTotals struct {
	Floor       floor.Floor `json:"floor"`
	Label       string      `json:"label"`
	Articles    int         `json:"articles"` // articles currently on this floor
	Received    int         `json:"received"`
	Completed   int         `json:"completed"`
	Transferred int         `json:"transferred"`
	Remaining   int         `json:"remaining"`
	M1          int         `json:"m1Quantity,omitempty"`
	M2          int         `json:"m2Quantity,omitempty"`
	M3          int         `json:"m3Quantity,omitempty"`
	M4          int         `json:"m4Quantity,omitempty"`
}

type OrderSummary struct {
	OrderID         uint          `json:"orderId"`
	Articles        int           `json:"articles"`
	Planned         int           `json:"planned"`
	Completed       int           `json:"completedArticles"`
	AverageProgress int           `json:"averageProgress"`
	Floors          []FloorTotals `json:"floors"`
}

// OrderSummary aggregates the ledgers of every article in the order. Floors
// are listed in production order and only when some article routes through
// them.
func (s *Service) OrderSummary(ctx context.Context, orderID uint) (*OrderSummary, error) {
	ok, err := s.orders.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	articles, err := s.articles.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return summarize(orderID, articles), nil
}

func summarize(orderID uint, articles []models.Article) *OrderSummary {
	sum := &OrderSummary{OrderID: orderID, Articles: len(articles), Floors: []FloorTotals{}}
	totals := make(map[floor.Floor]*FloorTotals)
	progress := decimal.Zero

	for i := range articles {
		a := &articles[i]
		sum.Planned += a.PlannedQuantity
		progress = progress.Add(decimal.NewFromInt(int64(a.Progress)))
		if a.Status == models.ArticleStatusCompleted {
			sum.Completed++
		}

		seq, err := a.Floors()
		if err != nil {
			continue
		}
		for _, f := range seq {
			t, ok := totals[f]
			if !ok {
				t = &FloorTotals{Floor: f, Label: f.Label()}
				totals[f] = t
			}
			if a.CurrentFloor == f {
				t.Articles++
			}
			l, ok := a.FloorQuantities[f]
			if !ok || l == nil {
				continue
			}
			t.Received += l.Received
			t.Completed += l.Completed
			t.Transferred += l.Transferred
			t.Remaining += l.Remaining
			if f.IsInspection() {
				t.M1 += l.M1Quantity
				t.M2 += l.M2Quantity
				t.M3 += l.M3Quantity
				t.M4 += l.M4Quantity
			}
		}
	}

	if len(articles) > 0 {
		sum.AverageProgress = int(progress.Div(decimal.NewFromInt(int64(len(articles)))).Round(0).IntPart())
	}
	for _, f := range floor.All {
		if t, ok := totals[f]; ok {
			sum.Floors = append(sum.Floors, *t)
		}
	}
	return sum
}

// GET /api/orders/:orderId/summary
func OrderSummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("orderId")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}
		sum, err := svc.OrderSummary(c.UserContext(), uint(id))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(sum)
	}
}
