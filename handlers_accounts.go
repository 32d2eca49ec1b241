package main

import (
	"net/http"

	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var accountTypes = map[string]bool{"checking": true, "savings": true, "credit": true, "cash": true, "investment": true}

func listAccountsHandler(c *gin.Context) {
	var accounts []models.Account
	if err := db.Where("user_id = ?", currentUserID(c)).Order("id").Find(&accounts).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func createAccountHandler(c *gin.Context) {
	var req struct {
		Name    string          `json:"name" binding:"required"`
		Balance decimal.Decimal `json:"balance"`
		Type    string          `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = "checking"
	}
	if !accountTypes[req.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account type"})
		return
	}
	a := models.Account{UserID: currentUserID(c), Name: req.Name, Balance: req.Balance, Type: req.Type, IsManual: true}
	if err := db.Create(&a).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func updateAccountHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var a models.Account
	if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&a).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	var req struct {
		Name    *string          `json:"name"`
		Balance *decimal.Decimal `json:"balance"`
		Type    *string          `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil && *req.Name != "" {
		a.Name = *req.Name
	}
	if req.Balance != nil {
		a.Balance = *req.Balance
	}
	if req.Type != nil {
		if !accountTypes[*req.Type] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account type"})
			return
		}
		a.Type = *req.Type
	}
	if err := db.Save(&a).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func deleteAccountHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	res := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.Account{})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
