package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// importTransactionsHandler accepts a multipart "file" holding CSV, OFX or QFX
// and an optional account_id whose balance absorbs the imported net amount.
func importTransactionsHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	var accountID *uint
	if raw := c.PostForm("account_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
			return
		}
		id := uint(v)
		accountID = &id
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	res, err := imports.ImportFile(c.Request.Context(), currentUserID(c), fh.Filename, f, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
