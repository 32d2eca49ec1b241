package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listCategoriesHandler(c *gin.Context) {
	names, err := catalog.Names(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func listCategoriesExtendedHandler(c *gin.Context) {
	rows, err := catalog.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func createCategoryHandler(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := catalog.Add(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func renameCategoryHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := catalog.Rename(c.Request.Context(), currentUserID(c), id, req.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

func deleteCategoryHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := catalog.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func suggestCategoryHandler(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := learner.Suggest(c.Request.Context(), currentUserID(c), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	if s.Category == "" {
		c.JSON(http.StatusOK, gin.H{"suggested_category": nil, "confidence": nil})
		return
	}
	c.JSON(http.StatusOK, s)
}
