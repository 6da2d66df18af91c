package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supply-ledger/internal/application/analytics"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/application/usecase"
	"github.com/jhoicas/supply-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC         *usecase.ItemUseCase
	Coordinator    *inventory.Coordinator
	Queries        *inventory.QueryUseCase
	Reconciliation *inventory.ReconciliationUseCase
	Requests       *inventory.RequestFulfillmentUseCase
	Replenishment  *inventory.ReplenishmentUseCase
	Dashboard      *analytics.DashboardUseCase
	JWTSecret      string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; los roles limitan las escrituras.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStaff, jwt.RoleViewer)
	posting := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStaff)
	managing := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	itemHandler := NewItemHandler(deps.ItemUC)
	invHandler := NewInventoryHandler(deps.Coordinator, deps.Queries, deps.Replenishment)
	reconHandler := NewReconciliationHandler(deps.Reconciliation)
	requestHandler := NewRequestHandler(deps.Requests)
	dashboardHandler := NewDashboardHandler(deps.Dashboard)

	// Items
	items := api.Group("/items")
	items.Get("/", anyRole, itemHandler.List)
	items.Post("/", managing, itemHandler.Create)
	items.Get("/:id", anyRole, itemHandler.GetByID)
	items.Put("/:id", managing, itemHandler.Update)
	items.Post("/:id/deactivate", managing, itemHandler.Deactivate)
	items.Post("/:id/activate", managing, itemHandler.Activate)
	items.Get("/:id/balance", anyRole, invHandler.GetBalance)
	items.Get("/:id/movements", anyRole, invHandler.ListMovements)
	items.Get("/:id/stock-card", anyRole, invHandler.StockCard)
	items.Get("/:id/stock-card.pdf", anyRole, invHandler.StockCardPDF)
	items.Get("/:id/reconciliations", anyRole, reconHandler.History)

	// Transacciones del ledger
	tx := api.Group("/transactions", posting)
	tx.Post("/receipts", invHandler.Receive)
	tx.Post("/issuances", invHandler.Issue)

	// Solicitudes departamentales aprobadas
	api.Post("/requests/fulfill", posting, requestHandler.Fulfill)

	// Conteos físicos
	api.Post("/reconciliations", managing, reconHandler.Reconcile)
	api.Post("/physical-counts", managing, reconHandler.PhysicalCount)

	// Reportes
	api.Get("/reports/reorder", anyRole, invHandler.GetReorderList)
	api.Get("/reports/dashboard", anyRole, dashboardHandler.GetSummary)
}
