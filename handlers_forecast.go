package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func forecastHandler(c *gin.Context) {
	res, err := engine.Forecast(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
