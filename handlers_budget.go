package main

import (
	"net/http"
	"time"

	"fintrack/models"
	"fintrack/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func setBudgetHandler(c *gin.Context) {
	var req struct {
		Category string          `json:"category" binding:"required"`
		Amount   decimal.Decimal `json:"amount"`
		Month    string          `json:"month"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	month, err := monthOrCurrent(req.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	b := models.Budget{UserID: currentUserID(c), Category: req.Category, Month: month, Amount: req.Amount}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&b).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget saved", "category": b.Category, "month": b.Month, "amount": b.Amount})
}

func setMonthlyIncomeHandler(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Month  string          `json:"month"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	month, err := monthOrCurrent(req.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	mi := models.MonthlyIncome{UserID: currentUserID(c), Month: month, Amount: req.Amount}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&mi).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Monthly income saved", "month": mi.Month, "amount": mi.Amount})
}

type budgetStatusLine struct {
	Category  string          `json:"category"`
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   float64         `json:"percent"`
}

// budgetStatusHandler compares each budget of the month with what was spent in that category.
func budgetStatusHandler(c *gin.Context) {
	month, err := monthOrCurrent(c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	uid := currentUserID(c)
	start, _ := ledger.ParseMonth(month)
	end := start.AddDate(0, 1, 0)

	budgets, err := store.ListBudgets(ctx, uid, month)
	if err != nil {
		respondError(c, err)
		return
	}
	spent, err := store.CategoryTotals(ctx, uid, &start, &end)
	if err != nil {
		respondError(c, err)
		return
	}

	lines := make([]budgetStatusLine, 0, len(budgets))
	totalBudget, totalSpent := decimal.Zero, decimal.Zero
	for _, b := range budgets {
		s := spent[b.Category]
		line := budgetStatusLine{Category: b.Category, Budget: b.Amount, Spent: s, Remaining: b.Amount.Sub(s)}
		if b.Amount.IsPositive() {
			line.Percent = s.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		lines = append(lines, line)
		totalBudget = totalBudget.Add(b.Amount)
		totalSpent = totalSpent.Add(s)
	}
	c.JSON(http.StatusOK, gin.H{
		"month":        month,
		"categories":   lines,
		"total_budget": totalBudget,
		"total_spent":  totalSpent,
	})
}

// budgetProjectionHandler reports the income a month can be planned against:
// the manual figure when one was entered, otherwise the average of the last
// 90 days of income per month observed.
func budgetProjectionHandler(c *gin.Context) {
	month, err := monthOrCurrent(c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	uid := currentUserID(c)
	override, err := store.ManualIncomeOverride(ctx, uid, month)
	if err != nil {
		respondError(c, err)
		return
	}
	if override != nil {
		c.JSON(http.StatusOK, gin.H{"month": month, "projected_income": *override, "is_manual": true, "months_analyzed": 0})
		return
	}
	since := ledger.DateOnly(time.Now().UTC()).AddDate(0, 0, -90)
	points, err := store.ListIncomes(ctx, uid, since)
	if err != nil {
		respondError(c, err)
		return
	}
	total := decimal.Zero
	months := map[string]struct{}{}
	for _, p := range points {
		total = total.Add(p.Amount)
		months[ledger.MonthOf(p.Date)] = struct{}{}
	}
	projected := decimal.Zero
	if len(months) > 0 {
		projected = total.Div(decimal.NewFromInt(int64(len(months)))).Round(2)
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "projected_income": projected, "is_manual": false, "months_analyzed": len(months)})
}

func deleteBudgetHandler(c *gin.Context) {
	month, err := monthOrCurrent(c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	res := db.Where("user_id = ? AND category = ? AND month = ?", currentUserID(c), c.Param("category"), month).
		Delete(&models.Budget{})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}
