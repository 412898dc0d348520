package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/database/categories"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// CategoriesController manages the named categories of the selected
// unit. Products reference categories loosely by name.
type CategoriesController struct{}

func NewCategoriesController() *CategoriesController {
	return &CategoriesController{}
}

func (cc *CategoriesController) repo(c *gin.Context) *categories.Repository {
	return categories.NewRepository(tenant.BoundAdapter(c))
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (cc *CategoriesController) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name is required"})
		return
	}
	cat := &entities.Category{Name: req.Name, Description: req.Description}
	if err := cc.repo(c).Create(c.Request.Context(), cat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

func (cc *CategoriesController) List(c *gin.Context) {
	list, err := cc.repo(c).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

func (cc *CategoriesController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name is required"})
		return
	}
	cat := &entities.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := cc.repo(c).Update(c.Request.Context(), cat); err != nil {
		if errors.Is(err, categories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (cc *CategoriesController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := cc.repo(c).Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, categories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
