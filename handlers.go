package main

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/pkg/ledger"

	"github.com/gin-gonic/gin"
)

func setupRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	auth := r.Group("")
	auth.Use(jwtAuthMiddleware())
	auth.GET("/me", meHandler)

	api := auth.Group("/api")
	api.POST("/incomes", createIncomeHandler)
	api.GET("/incomes", listIncomesHandler)
	api.POST("/expenses", createExpenseHandler)
	api.GET("/expenses", listExpensesHandler)
	api.GET("/expenses/by-category", expensesByCategoryHandler)
	api.POST("/expenses/bulk-update", bulkUpdateExpensesHandler)
	api.PUT("/expenses/:id", updateExpenseHandler)
	api.GET("/summary", summaryHandler)

	api.GET("/categories", listCategoriesHandler)
	api.GET("/categories/extended", listCategoriesExtendedHandler)
	api.POST("/categories", createCategoryHandler)
	api.PUT("/categories/:id", renameCategoryHandler)
	api.DELETE("/categories/:id", deleteCategoryHandler)
	api.POST("/categories/suggest", suggestCategoryHandler)
	api.POST("/suggest-category", suggestCategoryHandler)

	api.POST("/budget", setBudgetHandler)
	api.POST("/budget/income", setMonthlyIncomeHandler)
	api.GET("/budget/status", budgetStatusHandler)
	api.GET("/budget/projection", budgetProjectionHandler)
	api.DELETE("/budget/:category", deleteBudgetHandler)

	api.GET("/goals", listGoalsHandler)
	api.POST("/goals", createGoalHandler)
	api.PUT("/goals/:id", updateGoalHandler)
	api.DELETE("/goals/:id", deleteGoalHandler)

	api.GET("/accounts", listAccountsHandler)
	api.POST("/accounts", createAccountHandler)
	api.PUT("/accounts/:id", updateAccountHandler)
	api.DELETE("/accounts/:id", deleteAccountHandler)

	api.GET("/forecast", forecastHandler)
	api.POST("/transactions/import", importTransactionsHandler)
	api.GET("/export/transactions", exportTransactionsHandler)
	api.POST("/receipts", uploadReceiptHandler)
	api.GET("/receipts", listReceiptsHandler)

	sf := auth.Group("/simplefin")
	sf.Use(bankFeedEnabled())
	sf.POST("/save-key", saveBankKeyHandler)
	sf.POST("/disconnect", disconnectBankHandler)
	sf.POST("/sync", syncBankHandler)
	sf.GET("/status", bankStatusHandler)
}

const dateLayout = "2006-01-02"

// parseDateOr parses a YYYY-MM-DD string, returning def for an empty one.
func parseDateOr(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return ledger.DateOnly(def), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// dateRange reads optional start_date and end_date query parameters. Both are
// inclusive; malformed values are ignored.
func dateRange(c *gin.Context) (from, to *time.Time) {
	if t, err := time.Parse(dateLayout, c.Query("start_date")); err == nil {
		from = &t
	}
	if t, err := time.Parse(dateLayout, c.Query("end_date")); err == nil {
		next := t.AddDate(0, 0, 1)
		to = &next
	}
	return from, to
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func monthOrCurrent(m string) (string, error) {
	if m == "" {
		return ledger.MonthOf(time.Now().UTC()), nil
	}
	if _, err := ledger.ParseMonth(m); err != nil {
		return "", err
	}
	return m, nil
}
