package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/models"
	"fintrack/pkg/bankfeed"
	"fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
)

// bankFeedEnabled answers 503 for every bank route unless the feed is
// enabled and an encryption key is loaded.
func bankFeedEnabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Bank.Enabled || sealer == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "bank feed is not configured"})
			return
		}
		c.Next()
	}
}

func saveBankKeyHandler(c *gin.Context) {
	var req struct {
		AccessKey string `json:"access_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := strings.TrimSpace(req.AccessKey)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_key is required"})
		return
	}
	ctx := c.Request.Context()
	if bankfeed.IsSetupToken(key) {
		accessURL, err := bank.Claim(ctx, key)
		if err != nil {
			lg := logger.FromContext(ctx)
			lg.Warn().Err(err).Msg("claim setup token")
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to claim setup token", "details": err.Error()})
			return
		}
		key = accessURL
	}
	sealed, err := sealer.Seal(key)
	if err != nil {
		respondError(c, err)
		return
	}
	now := time.Now().UTC()
	res := db.Model(&models.User{}).Where("id = ?", currentUserID(c)).
		Updates(map[string]any{"bank_token": sealed, "bank_linked_at": now})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SimpleFIN key saved"})
}

func disconnectBankHandler(c *gin.Context) {
	err := db.Model(&models.User{}).Where("id = ?", currentUserID(c)).
		Updates(map[string]any{"bank_token": nil, "bank_linked_at": nil}).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SimpleFIN disconnected"})
}

// accessURLFor opens the user's sealed token, falling back to the configured access URL.
func accessURLFor(uid uint) (string, error) {
	var u models.User
	if err := db.Select("id", "bank_token").First(&u, uid).Error; err != nil {
		return "", err
	}
	if len(u.BankToken) > 0 {
		return sealer.Open(u.BankToken)
	}
	return cfg.Bank.AccessURL, nil
}

func syncBankHandler(c *gin.Context) {
	uid := currentUserID(c)
	accessURL, err := accessURLFor(uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if accessURL == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "SimpleFIN not connected"})
		return
	}
	res, err := syncer.Sync(c.Request.Context(), uid, accessURL)
	if err != nil {
		var se *bankfeed.StatusError
		if errors.As(err, &se) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to sync", "status": se.Status, "details": se.Body})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Sync successful",
		"accounts":         res.Accounts,
		"new_transactions": res.NewTransactions,
		"duplicates":       res.Duplicates,
		"errors":           res.Errors,
	})
}

func bankStatusHandler(c *gin.Context) {
	var u models.User
	if err := db.Select("id", "bank_token", "bank_linked_at").First(&u, currentUserID(c)).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":    len(u.BankToken) > 0 || cfg.Bank.AccessURL != "",
		"linked_at":    u.BankLinkedAt,
		"env_fallback": len(u.BankToken) == 0 && cfg.Bank.AccessURL != "",
	})
}
