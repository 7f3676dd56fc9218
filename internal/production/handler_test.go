package production

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-backend/internal/auth"
	"textile-backend/internal/floor"
	"textile-backend/internal/ledger"
	"textile-backend/internal/models"
)

func newTestApp(t *testing.T) (*fiber.App, *memStore) {
	t.Helper()
	svc, store, sink := newTestService(t, nil)
	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserNameKey, "Admin")
		c.Locals(auth.CtxUserRoleKey, models.RoleAdmin)
		return c.Next()
	})
	Routes(api, svc, sink)
	return app, store
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

// seedOverHTTP creates an order and a Hand Linking article of 100 pieces.
func seedOverHTTP(t *testing.T, app *fiber.App) (orderID, articleID uint) {
	t.Helper()
	status, body := do(t, app, "POST", "/api/orders", `{"orderNumber":"PO-9","buyerName":"Fjord AS"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var o models.ProductionOrder
	require.NoError(t, json.Unmarshal(body, &o))

	status, body = do(t, app, "POST", fmt.Sprintf("/api/orders/%d/articles", o.ID),
		`{"articleNumber":"ART-1","plannedQuantity":100,"linkingType":"Hand Linking"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var res struct {
		Article models.Article `json:"article"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	return o.ID, res.Article.ID
}

func TestFloorRoutes(t *testing.T) {
	app, store := newTestApp(t)
	orderID, articleID := seedOverHTTP(t, app)
	base := fmt.Sprintf("/orders/%d/articles/%d", orderID, articleID)
	on := func(f string) string { return "/api/floors/" + f + base }

	status, body := do(t, app, "POST", on("knitting")+"/progress", `{"completedQuantity":100,"machineId":4}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var res struct {
		OperationID string         `json:"operationId"`
		Outcome     ledger.Outcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.NotEmpty(t, res.OperationID)
	assert.Equal(t, floor.Linking, res.Outcome.CurrentFloor)

	status, body = do(t, app, "POST", on("linking")+"/progress", `{"completedQuantity":60}`)
	require.Equal(t, fiber.StatusOK, status, string(body))

	// Auto transfer already moved the 60, so an empty transfer has nothing left.
	status, body = do(t, app, "POST", on("linking")+"/transfer", "")
	assert.Equal(t, fiber.StatusConflict, status, string(body))

	status, body = do(t, app, "POST", on("checking")+"/progress", `{"completedQuantity":60}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, body = do(t, app, "POST", on("Checking")+"/quality",
		`{"m1Quantity":50,"m2Quantity":6,"m3Quantity":2,"m4Quantity":2}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, 50, store.stored(t, articleID).FloorQuantities[floor.Washing].Received)

	status, body = do(t, app, "POST", on("checking")+"/shift-m2", `{"fromM2":6,"toM1":6}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, body = do(t, app, "POST", on("checking")+"/write-off-defects", "")
	require.Equal(t, fiber.StatusOK, status, string(body))

	stored := store.stored(t, articleID)
	assert.Equal(t, 56, stored.FloorQuantities[floor.Washing].Received)
	assert.Equal(t, 4, stored.FloorQuantities[floor.Checking].WrittenOff)
	require.NotNil(t, stored.MachineID)
	assert.Equal(t, uint(4), *stored.MachineID)

	status, body = do(t, app, "GET", "/api"+base, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, body = do(t, app, "GET", "/api"+base+"/logs", "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.NotEmpty(t, logs)
}

func TestFloorRouteErrors(t *testing.T) {
	app, _ := newTestApp(t)
	orderID, articleID := seedOverHTTP(t, app)
	base := fmt.Sprintf("/orders/%d/articles/%d", orderID, articleID)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   ledger.Kind
	}{
		{"unknown floor", "/api/floors/moon" + base + "/progress", `{"completedQuantity":1}`, fiber.StatusBadRequest, ""},
		{"missing completed", "/api/floors/knitting" + base + "/progress", `{"defects":1}`, fiber.StatusBadRequest, ledger.KindInvalidQuantity},
		{"exceeds received", "/api/floors/linking" + base + "/progress", `{"completedQuantity":50}`, fiber.StatusBadRequest, ledger.KindQuantityExceedsReceived},
		{"quality on production floor", "/api/floors/knitting" + base + "/quality", `{"m1Quantity":1}`, fiber.StatusBadRequest, ledger.KindInvalidFloorForQuality},
		{"nothing to transfer", "/api/floors/knitting" + base + "/transfer", "", fiber.StatusConflict, ledger.KindNothingToTransfer},
		{"final quality not ready", "/api/floors/finalChecking" + base + "/confirm-final-quality", "", fiber.StatusConflict, ledger.KindFinalQualityNotReady},
		{"unknown article", fmt.Sprintf("/api/floors/knitting/orders/%d/articles/999/transfer", orderID), "", fiber.StatusNotFound, ""},
		{"bad article id", fmt.Sprintf("/api/floors/knitting/orders/%d/articles/abc/transfer", orderID), "", fiber.StatusBadRequest, ""},
		{"malformed body", "/api/floors/knitting" + base + "/progress", `{"completedQuantity":`, fiber.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, "POST", tt.path, tt.body)
			require.Equal(t, tt.status, status, string(body))
			if tt.kind == "" {
				return
			}
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestExceedsReceivedCarriesBounds(t *testing.T) {
	app, _ := newTestApp(t)
	orderID, articleID := seedOverHTTP(t, app)

	status, body := do(t, app, "POST",
		fmt.Sprintf("/api/floors/linking/orders/%d/articles/%d/progress", orderID, articleID), `{"completedQuantity":50}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Limit)
	require.NotNil(t, resp.Actual)
	assert.Equal(t, 0, *resp.Limit)
	assert.Equal(t, 50, *resp.Actual)
	assert.Equal(t, floor.Linking, resp.Floor)
}

func TestFixCorruptionRoute(t *testing.T) {
	app, store := newTestApp(t)
	_, articleID := seedOverHTTP(t, app)
	corrupt(t, store, articleID)

	status, body := do(t, app, "POST", fmt.Sprintf("/api/admin/articles/%d/fix-corruption?dryRun=true", articleID), "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	var report RepairReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.True(t, report.DryRun)
	assert.Len(t, report.Corrections, 1)
	assert.Equal(t, 7, store.stored(t, articleID).FloorQuantities[floor.Washing].Remaining)

	status, body = do(t, app, "POST", fmt.Sprintf("/api/admin/articles/%d/fix-corruption", articleID), "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &report))
	assert.True(t, report.Saved)
	assert.Equal(t, 0, store.stored(t, articleID).FloorQuantities[floor.Washing].Remaining)

	status, _ = do(t, app, "POST", "/api/admin/articles/0/fix-corruption", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCreateRoutesValidate(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, "POST", "/api/orders", `{"orderNumber":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/api/orders/77/articles", `{"articleNumber":"A","plannedQuantity":5,"linkingType":"Auto Linking"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCreateOrderDuplicateNumberConflicts(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, "POST", "/api/orders", `{"orderNumber":"PO-42"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = do(t, app, "POST", "/api/orders", `{"orderNumber":"PO-42","buyerName":"Other"}`)
	require.Equal(t, fiber.StatusConflict, status, string(body))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Contains(t, resp.Error, "already exists")
}
