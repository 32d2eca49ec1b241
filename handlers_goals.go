package main

import (
	"net/http"
	"time"

	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type goalRequest struct {
	Description   *string          `json:"description"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *string          `json:"deadline"`
}

// apply copies the set fields of req onto g.
func (req goalRequest) apply(g *models.Goal) string {
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			g.Deadline = nil
		} else {
			d, err := time.Parse(dateLayout, *req.Deadline)
			if err != nil {
				return "deadline must be YYYY-MM-DD"
			}
			g.Deadline = &d
		}
	}
	switch {
	case g.Description == "":
		return "description is required"
	case !g.TargetAmount.IsPositive():
		return "target_amount must be positive"
	case g.CurrentAmount.IsNegative():
		return "current_amount must not be negative"
	}
	return ""
}

func listGoalsHandler(c *gin.Context) {
	var goals []models.Goal
	if err := db.Where("user_id = ?", currentUserID(c)).Order("id").Find(&goals).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func createGoalHandler(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := models.Goal{UserID: currentUserID(c)}
	if msg := req.apply(&g); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := db.Create(&g).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func updateGoalHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var g models.Goal
	if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&g).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.apply(&g); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := db.Save(&g).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func deleteGoalHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	res := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.Goal{})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}
