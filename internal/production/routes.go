package production

import (
	"github.com/gofiber/fiber/v2"

	"textile-backend/internal/audit"
	"textile-backend/internal/auth"
	"textile-backend/internal/models"
)

// Routes mounts the production API on an authenticated router.
func Routes(r fiber.Router, svc *Service, logs audit.Reader) {
	r.Post("/orders", auth.RequireRole(models.RoleAdmin), CreateOrderHandler(svc))
	r.Get("/orders/:orderId/summary", OrderSummaryHandler(svc))
	r.Post("/orders/:orderId/articles", auth.RequireRole(models.RoleAdmin), CreateArticleHandler(svc))
	r.Post("/orders/:orderId/articles/import", auth.RequireRole(models.RoleAdmin), ImportArticlesHandler(svc))
	r.Get("/orders/:orderId/articles/:articleId", GetArticleHandler(svc))
	r.Get("/orders/:orderId/articles/:articleId/logs", audit.ListArticleLogsHandler(logs))

	const onFloor = "/floors/:floor/orders/:orderId/articles/:articleId"
	access := auth.RequireFloorAccess()
	r.Post(onFloor+"/progress", access, UpdateProgressHandler(svc))
	r.Post(onFloor+"/transfer", access, TransferHandler(svc))
	r.Post(onFloor+"/quality", access, QualityInspectionHandler(svc))
	r.Post(onFloor+"/shift-m2", access, ShiftM2Handler(svc))
	r.Post(onFloor+"/write-off-defects", access, WriteOffDefectsHandler(svc))
	r.Post(onFloor+"/confirm-final-quality", access, ConfirmFinalQualityHandler(svc))

	r.Post("/admin/articles/:articleId/fix-corruption", auth.RequireRole(models.RoleAdmin), FixDataCorruptionHandler(svc))
}
