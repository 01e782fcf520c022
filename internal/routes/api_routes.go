// backend-erp/internal/routes/api_routes.go
package routes

import (
	"backend-erp/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API. Группа уже защищена
// middleware аутентификации.
func RegisterAPIRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.GET("", handlers.ListClientsHandler)
		clients.POST("", handlers.CreateClientHandler)
		clients.GET("/:id", handlers.GetClientHandler)
		clients.PUT("/:id", handlers.UpdateClientHandler)
		clients.DELETE("/:id", handlers.DeleteClientHandler)
	}

	projects := rg.Group("/projects")
	{
		projects.GET("", handlers.ListProjectsHandler)
		projects.POST("", handlers.CreateProjectHandler)
		projects.GET("/:id", handlers.GetProjectHandler)
		projects.PUT("/:id", handlers.UpdateProjectHandler)
		projects.DELETE("/:id", handlers.DeleteProjectHandler)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("", handlers.ListPaymentsHandler)
		payments.POST("", handlers.CreatePaymentHandler)
		payments.GET("/overdue", handlers.OverduePaymentsHandler)
		payments.GET("/upcoming", handlers.UpcomingPaymentsHandler)
		payments.GET("/export", handlers.ExportPaymentsHandler)
		payments.POST("/generate", handlers.GeneratePaymentsHandler)
		payments.GET("/:id", handlers.GetPaymentHandler)
		payments.PUT("/:id", handlers.UpdatePaymentHandler)
		payments.PATCH("/:id/status", handlers.UpdatePaymentStatusHandler)
		payments.DELETE("/:id", handlers.DeletePaymentHandler)
	}

	expenses := rg.Group("/expenses")
	{
		expenses.GET("", handlers.ListExpensesHandler)
		expenses.POST("", handlers.CreateExpenseHandler)
		expenses.GET("/categories", handlers.ExpenseCategoriesHandler)
		expenses.GET("/:id", handlers.GetExpenseHandler)
		expenses.PUT("/:id", handlers.UpdateExpenseHandler)
		expenses.DELETE("/:id", handlers.DeleteExpenseHandler)
	}

	recurring := rg.Group("/recurring-expenses")
	{
		recurring.GET("", handlers.ListRecurringExpensesHandler)
		recurring.POST("", handlers.CreateRecurringExpenseHandler)
		recurring.GET("/:id", handlers.GetRecurringExpenseHandler)
		recurring.PUT("/:id", handlers.UpdateRecurringExpenseHandler)
		recurring.DELETE("/:id", handlers.DeleteRecurringExpenseHandler)
		recurring.POST("/:id/generate", handlers.GenerateAccruedExpensesHandler)
	}

	accrued := rg.Group("/accrued-expenses")
	{
		accrued.GET("", handlers.ListAccruedExpensesHandler)
		accrued.POST("", handlers.CreateAccruedExpenseHandler)
		accrued.GET("/overdue", handlers.OverdueAccruedExpensesHandler)
		accrued.GET("/export", handlers.ExportAccruedExpensesHandler)
		accrued.GET("/upcoming", handlers.UpcomingAccruedExpensesHandler)
		accrued.PATCH("/:id/status", handlers.UpdateAccruedExpenseStatusHandler)
		accrued.DELETE("/:id", handlers.DeleteAccruedExpenseHandler)
	}

	incomes := rg.Group("/incomes")
	{
		incomes.GET("", handlers.ListIncomesHandler)
		incomes.POST("", handlers.CreateIncomeHandler)
		incomes.GET("/analysis", handlers.IncomeAnalysisHandler)
		incomes.GET("/:id", handlers.GetIncomeHandler)
		incomes.PUT("/:id", handlers.UpdateIncomeHandler)
		incomes.DELETE("/:id", handlers.DeleteIncomeHandler)
	}

	documents := rg.Group("/documents")
	{
		documents.GET("", handlers.ListDocumentsHandler)
		documents.POST("", handlers.UploadDocumentHandler)
		documents.GET("/:id/download", handlers.DownloadDocumentHandler)
		documents.DELETE("/:id", handlers.DeleteDocumentHandler)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("/cash-flow", handlers.CashFlowReportHandler)
		reports.GET("/profitability", handlers.ProfitabilityReportHandler)
		reports.GET("/financial-projection", handlers.FinancialProjectionReportHandler)
		reports.GET("/dashboard", handlers.DashboardReportHandler)
		reports.GET("/client-analytics", handlers.ClientAnalyticsReportHandler)
	}
}
