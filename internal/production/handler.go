package production

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"textile-backend/internal/auth"
	"textile-backend/internal/floor"
	"textile-backend/internal/ledger"
)

type CreateOrderRequest struct {
	OrderNumber string `json:"orderNumber"`
	BuyerName   string `json:"buyerName"`
}

type ProgressRequest struct {
	CompletedQuantity *int    `json:"completedQuantity"`
	Defects           *int    `json:"defects"`
	MachineID         *uint   `json:"machineId"`
	Remarks           *string `json:"remarks"`
}

type TransferRequest struct {
	Quantity *int `json:"quantity"`
}

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Error  string      `json:"error"`
	Kind   ledger.Kind `json:"kind,omitempty"`
	Floor  floor.Floor `json:"floor,omitempty"`
	Limit  *int        `json:"limit,omitempty"`
	Actual *int        `json:"actual,omitempty"`
}

// WriteError maps service errors onto HTTP statuses. Validation kinds are
// 400, state kinds and duplicate order numbers 409, unknown ids 404. Anything else is passed on to the
// app's ErrorHandler.
func WriteError(c *fiber.Ctx, err error) error {
	var lerr *ledger.Error
	switch {
	case errors.As(err, &lerr):
		status := fiber.StatusConflict
		if lerr.Kind.IsValidation() {
			status = fiber.StatusBadRequest
		}
		resp := ErrorResponse{Error: lerr.Error(), Kind: lerr.Kind, Floor: lerr.Floor}
		if lerr.Limit != 0 || lerr.Actual != 0 {
			limit, actual := lerr.Limit, lerr.Actual
			resp.Limit, resp.Actual = &limit, &actual
		}
		return c.Status(status).JSON(resp)
	case errors.Is(err, ErrArticleNotFound), errors.Is(err, ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrOrderExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	return err
}

type target struct {
	floor     floor.Floor
	orderID   uint
	articleID uint
}

func parseIDs(c *fiber.Ctx) (orderID, articleID uint, err error) {
	o, err := c.ParamsInt("orderId")
	if err != nil || o <= 0 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	a, err := c.ParamsInt("articleId")
	if err != nil || a <= 0 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid article id")
	}
	return uint(o), uint(a), nil
}

func parseTarget(c *fiber.Ctx) (target, error) {
	f, err := floor.Parse(c.Params("floor"))
	if err != nil {
		return target{}, &ledger.Error{Kind: ledger.KindInvalidFloor, Msg: err.Error()}
	}
	orderID, articleID, err := parseIDs(c)
	if err != nil {
		return target{}, err
	}
	return target{floor: f, orderID: orderID, articleID: articleID}, nil
}

// parseOptionalBody decodes the body when one was sent.
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		o, err := svc.CreateOrder(c.UserContext(), body.OrderNumber, body.BuyerName)
		if err != nil {
			return WriteError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// POST /api/orders/:orderId/articles
func CreateArticleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := c.ParamsInt("orderId")
		if err != nil || o <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
		}
		var body CreateArticleInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		res, err := svc.CreateArticle(c.UserContext(), uint(o), body, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/orders/:orderId/articles/:articleId
func GetArticleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, articleID, err := parseIDs(c)
		if err != nil {
			return err
		}
		a, err := svc.GetArticle(c.UserContext(), orderID, articleID)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(a)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/progress
func UpdateProgressHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		var body ProgressRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.CompletedQuantity == nil {
			return WriteError(c, &ledger.Error{Kind: ledger.KindInvalidQuantity, Floor: t.floor, Msg: "completedQuantity is required"})
		}
		res, err := svc.UpdateProgress(c.UserContext(), t.orderID, t.articleID, t.floor, ProgressInput{
			Completed: *body.CompletedQuantity,
			Defects:   body.Defects,
			MachineID: body.MachineID,
			Remarks:   body.Remarks,
		}, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/transfer
func TransferHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		var body TransferRequest
		if err := parseOptionalBody(c, &body); err != nil {
			return err
		}
		res, err := svc.Transfer(c.UserContext(), t.orderID, t.articleID, t.floor, body.Quantity, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/quality
func QualityInspectionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		var body ledger.QualityInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		res, err := svc.QualityInspection(c.UserContext(), t.orderID, t.articleID, t.floor, body, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/shift-m2
func ShiftM2Handler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		var body ledger.ShiftInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		res, err := svc.ShiftM2Items(c.UserContext(), t.orderID, t.articleID, t.floor, body, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/write-off-defects
func WriteOffDefectsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		res, err := svc.WriteOffDefects(c.UserContext(), t.orderID, t.articleID, t.floor, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/floors/:floor/orders/:orderId/articles/:articleId/confirm-final-quality
func ConfirmFinalQualityHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := parseTarget(c)
		if err != nil {
			return WriteError(c, err)
		}
		res, err := svc.ConfirmFinalQuality(c.UserContext(), t.orderID, t.articleID, t.floor, auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/admin/articles/:articleId/fix-corruption?dryRun=true
func FixDataCorruptionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("articleId")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid article id")
		}
		report, err := svc.FixDataCorruption(c.UserContext(), uint(id), c.QueryBool("dryRun", false), auth.ActorFrom(c))
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(report)
	}
}
