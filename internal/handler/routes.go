package handler

import (
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth        *AuthHandler
	Financing   *FinancingHandler
	Payment     *PaymentHandler
	Goal        *GoalHandler
	Transaction *TransactionHandler
	Category    *CategoryHandler
	Report      *ReportHandler
	WebSocket   *WebSocketHandler
	Health      *HealthHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", h.Health.Check)

	// WebSocket authenticates with the token query parameter
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1, every route protected
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Auth routes
	api.GET("/auth/me", h.Auth.Me)

	// Financing routes
	financings := api.Group("/financings")
	financings.POST("", h.Financing.CreateFinancing)
	financings.GET("", h.Financing.GetFinancings)
	financings.GET("/totals", h.Financing.GetTotals)
	financings.GET("/:id", h.Financing.GetFinancing)
	financings.PUT("/:id", h.Financing.UpdateFinancing)
	financings.DELETE("/:id", h.Financing.DeleteFinancing)
	financings.GET("/:id/payments", h.Payment.GetPayments)
	financings.POST("/:id/payments", h.Payment.ApplyPayment)
	financings.DELETE("/:id/payments/:paymentId", h.Payment.ReversePayment)

	// Goal routes
	goals := api.Group("/goals")
	goals.POST("", h.Goal.CreateGoal)
	goals.GET("", h.Goal.GetGoals)
	goals.GET("/:id", h.Goal.GetGoal)
	goals.PUT("/:id", h.Goal.UpdateGoal)
	goals.DELETE("/:id", h.Goal.DeleteGoal)
	goals.PATCH("/:id/add", h.Goal.AddAmount)
	goals.PATCH("/:id/complete", h.Goal.CompleteGoal)
	goals.PATCH("/:id/cancel", h.Goal.CancelGoal)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Category routes
	categories := api.Group("/categories")
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)
	categories.GET("/main", h.Category.GetMainCategories)
	categories.GET("/type/:type", h.Category.GetCategoriesByType)
	categories.POST("/initialize", h.Category.InitializeDefaults)
	categories.GET("/:id", h.Category.GetCategory)
	categories.GET("/:id/subcategories", h.Category.GetSubcategories)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	// Report routes
	reports := api.Group("/reports")
	reports.POST("/transactions", h.Report.GetTransactions)
	reports.POST("/summary", h.Report.GetSummary)
	reports.POST("/export/transactions/csv", h.Report.ExportTransactionsCSV)
	reports.GET("/export/financings/csv", h.Report.ExportFinancingsCSV)
	reports.POST("/export/document", h.Report.ExportDocument)
	reports.POST("/export/:kind/archive", h.Report.ArchiveExport)
}
