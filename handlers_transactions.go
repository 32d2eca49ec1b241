package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"fintrack/models"
	"fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func createIncomeHandler(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Source string          `json:"source" binding:"required"`
		Date   string          `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	d, err := parseDateOr(req.Date, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	in := models.Income{UserID: currentUserID(c), Amount: req.Amount, Source: req.Source, Date: d}
	if err := db.Create(&in).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Income added", "id": in.ID})
}

func listIncomesHandler(c *gin.Context) {
	var items []models.Income
	if err := db.Where("user_id = ?", currentUserID(c)).Order("date desc, id desc").Find(&items).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func createExpenseHandler(c *gin.Context) {
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category" binding:"required"`
		Description string          `json:"description"`
		Date        string          `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	d, err := parseDateOr(req.Date, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}
	uid := currentUserID(c)
	e := models.Expense{UserID: uid, Amount: req.Amount, Category: req.Category, Description: req.Description, Date: d}
	if err := db.Create(&e).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := learner.Learn(c.Request.Context(), uid, req.Description, req.Category); err != nil {
		lg := logger.FromContext(c.Request.Context())
		lg.Warn().Err(err).Msg("learn category")
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Expense added", "id": e.ID})
}

func listExpensesHandler(c *gin.Context) {
	var items []models.Expense
	if err := db.Where("user_id = ?", currentUserID(c)).Order("date desc, id desc").Find(&items).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func updateExpenseHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	uid := currentUserID(c)
	var e models.Expense
	if err := db.Where("id = ? AND user_id = ?", id, uid).First(&e).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	var req struct {
		Amount      *decimal.Decimal `json:"amount"`
		Category    *string          `json:"category"`
		Description *string          `json:"description"`
		Date        *string          `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}
		e.Amount = *req.Amount
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Date != nil {
		d, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		e.Date = d
	}
	// saving the same category again still counts as a confirmation
	categorized := false
	if req.Category != nil {
		if name := strings.TrimSpace(*req.Category); name != "" {
			e.Category = name
			categorized = true
		}
	}
	if err := db.Save(&e).Error; err != nil {
		respondError(c, err)
		return
	}
	if categorized {
		if err := learner.Learn(c.Request.Context(), uid, e.Description, e.Category); err != nil {
			lg := logger.FromContext(c.Request.Context())
			lg.Warn().Err(err).Msg("learn category")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense updated"})
}

func bulkUpdateExpensesHandler(c *gin.Context) {
	var req struct {
		IDs      []uint `json:"ids" binding:"required,min=1"`
		Category string `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids and category are required"})
		return
	}
	res := db.Model(&models.Expense{}).
		Where("user_id = ? AND id IN ?", currentUserID(c), req.IDs).
		Update("category", req.Category)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Updated %d expenses successfully", res.RowsAffected), "updated": res.RowsAffected})
}

func expensesByCategoryHandler(c *gin.Context) {
	from, to := dateRange(c)
	breakdown, err := store.CategoryTotals(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func summaryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	uid := currentUserID(c)
	from, to := dateRange(c)
	income, err := store.SumIncomes(ctx, uid, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	expense, err := store.SumExpenses(ctx, uid, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_income":  income,
		"total_expense": expense,
		"net":           income.Sub(expense),
	})
}

type exportRow struct {
	date        time.Time
	kind        string
	category    string
	amount      decimal.Decimal
	description string
}

// exportTransactionsHandler streams every income and expense as CSV, newest first.
func exportTransactionsHandler(c *gin.Context) {
	uid := currentUserID(c)
	var incomes []models.Income
	var expenses []models.Expense
	if err := db.Where("user_id = ?", uid).Find(&incomes).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := db.Where("user_id = ?", uid).Find(&expenses).Error; err != nil {
		respondError(c, err)
		return
	}
	rows := make([]exportRow, 0, len(incomes)+len(expenses))
	for _, in := range incomes {
		rows = append(rows, exportRow{in.Date, "Income", "Income", in.Amount, in.Source})
	}
	for _, e := range expenses {
		rows = append(rows, exportRow{e.Date, "Expense", e.Category, e.Amount.Neg(), e.Description})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.After(rows[j].date) })

	c.Header("Content-Disposition", "attachment; filename=finance_export.csv")
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Date", "Type", "Category", "Amount", "Description"})
	for _, r := range rows {
		_ = w.Write([]string{r.date.Format(dateLayout), r.kind, r.category, r.amount.StringFixed(2), r.description})
	}
	w.Flush()
}
