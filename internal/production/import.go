package production

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"textile-backend/internal/audit"
	"textile-backend/internal/auth"
	"textile-backend/internal/floor"
)

// ImportRow is one spreadsheet line. Line is 1-based as shown in Excel.
// Rows that could not be parsed carry Err and are never created.
type ImportRow struct {
	Line  int
	Input CreateArticleInput
	Err   string
}

type RejectedRow struct {
	Line          int    `json:"line"`
	ArticleNumber string `json:"articleNumber,omitempty"`
	Error         string `json:"error"`
}

type ImportReport struct {
	Created  []uint        `json:"created"`
	Rejected []RejectedRow `json:"rejected"`
}

// ReadArticleSheet reads the first sheet of an xlsx workbook. Columns are
// article number, planned quantity, linking type, machine id and remarks;
// the last two may be empty. A header row is skipped when its first cell
// mentions "article".
func ReadArticleSheet(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: workbook could not be read: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q could not be read: %v", ErrInvalidInput, sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.Contains(strings.ToLower(rows[0][0]), "article") {
		start = 1
	}

	out := make([]ImportRow, 0, len(rows))
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		out = append(out, parseRow(i+1, row))
	}
	return out, nil
}

func parseRow(line int, row []string) ImportRow {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	ir := ImportRow{Line: line, Input: CreateArticleInput{
		ArticleNumber: cell(0),
		LinkingType:   floor.LinkingType(cell(2)),
		Remarks:       cell(4),
	}}

	planned, err := strconv.Atoi(cell(1))
	if err != nil {
		ir.Err = fmt.Sprintf("planned quantity %q is not a whole number", cell(1))
		return ir
	}
	ir.Input.PlannedQuantity = planned

	if m := cell(3); m != "" {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			ir.Err = fmt.Sprintf("machine id %q is not a number", m)
			return ir
		}
		machine := uint(id)
		ir.Input.MachineID = &machine
	}
	return ir
}

// ImportArticles creates one article per valid row. A row that fails is
// reported and does not stop the rest.
func (s *Service) ImportArticles(ctx context.Context, orderID uint, rows []ImportRow, actor audit.Actor) (*ImportReport, error) {
	ok, err := s.orders.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}

	report := &ImportReport{Created: []uint{}, Rejected: []RejectedRow{}}
	for _, row := range rows {
		if row.Err != "" {
			report.Rejected = append(report.Rejected, RejectedRow{Line: row.Line, ArticleNumber: row.Input.ArticleNumber, Error: row.Err})
			continue
		}
		res, err := s.CreateArticle(ctx, orderID, row.Input, actor)
		if err != nil {
			report.Rejected = append(report.Rejected, RejectedRow{Line: row.Line, ArticleNumber: row.Input.ArticleNumber, Error: err.Error()})
			continue
		}
		report.Created = append(report.Created, res.Article.ID)
	}

	s.log.Info("article import finished",
		zap.Uint("order_id", orderID),
		zap.Int("created", len(report.Created)),
		zap.Int("rejected", len(report.Rejected)))
	return report, nil
}

// POST /api/orders/:orderId/articles/import (multipart, field "file")
func ImportArticlesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("orderId")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file could not be opened")
		}
		defer file.Close()

		rows, err := ReadArticleSheet(file)
		if err != nil {
			return WriteError(c, err)
		}
		report, err := svc.ImportArticles(c.UserContext(), uint(id), rows, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	}
}
