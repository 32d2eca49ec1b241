package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/models"
	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"
	"fintrack/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxReceiptSize = 5 * 1024 * 1024

var receiptExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true, ".bmp": true}

// extractReceipt is swapped in tests that run without Tesseract.
var extractReceipt = receipt.ExtractTotal

// uploadReceiptHandler stores the image, reads its total and files an expense
// under the category learned for the merchant. OCR failures keep the receipt
// row and return 200 with failed=true.
func uploadReceiptHandler(c *gin.Context) {
	uid := currentUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !receiptExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}
	rel := filepath.Join("receipts", fmt.Sprint(uid), uuid.NewString()+ext)
	full := filepath.Join(cfg.Uploads.Base, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		respondError(c, err)
		return
	}
	if err := c.SaveUploadedFile(file, full); err != nil {
		respondError(c, err)
		return
	}

	rec := models.Receipt{
		UserID:      uid,
		FileName:    file.Filename,
		StorePath:   filepath.ToSlash(rel),
		ContentType: file.Header.Get("Content-Type"),
	}
	ctx := c.Request.Context()
	scan, scanErr := extractReceipt(full)
	var expense *models.Expense
	if scanErr == nil {
		description := scan.Merchant
		if description == "" {
			description = "Receipt " + file.Filename
		}
		category, err := learner.AutoCategorize(ctx, uid, scan.Merchant)
		if err != nil {
			lg := logger.FromContext(ctx)
			lg.Warn().Err(err).Msg("categorize receipt")
		}
		expense = &models.Expense{
			UserID:      uid,
			Amount:      scan.Total,
			Category:    category,
			Description: description,
			Date:        ledger.DateOnly(time.Now().UTC()),
		}
		if err := db.Create(expense).Error; err != nil {
			respondError(c, err)
			return
		}
		rec.ExpenseID = &expense.ID
	} else {
		rec.Failed = true
		rec.FailedReason = "ocr failed"
		if errors.Is(scanErr, receipt.ErrNoAmount) {
			rec.FailedReason = "no amount found"
		}
		lg := logger.FromContext(ctx)
		lg.Info().Err(scanErr).Str("file", file.Filename).Msg("receipt ocr failed")
	}
	if err := db.Create(&rec).Error; err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"receipt": rec, "failed": rec.Failed}
	if expense != nil {
		resp["expense"] = expense
		resp["merchant"] = scan.Merchant
		resp["confidence"] = scan.Confidence
	}
	c.JSON(http.StatusCreated, resp)
}

func listReceiptsHandler(c *gin.Context) {
	var recs []models.Receipt
	if err := db.Where("user_id = ?", currentUserID(c)).Order("id desc").Find(&recs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
