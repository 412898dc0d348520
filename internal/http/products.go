package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/database/products"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// ProductsController serves the product catalog of the selected unit.
// All handlers run behind RequireUnit, so a bound adapter is always
// present.
type ProductsController struct{}

func NewProductsController() *ProductsController {
	return &ProductsController{}
}

func (pc *ProductsController) repo(c *gin.Context) *products.Repository {
	return products.NewRepository(tenant.BoundAdapter(c))
}

type productRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Quantity      int64  `json:"quantity"`
	Category      string `json:"category"`
	Barcode       string `json:"barcode"`
	UnitOfMeasure string `json:"unit_of_measure"`
	MinStock      int64  `json:"min_stock"`
}

// Create adds a product to the selected unit's catalog.
func (pc *ProductsController) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product name is required"})
		return
	}
	if req.Quantity < 0 || req.MinStock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantities cannot be negative"})
		return
	}

	p := &entities.Product{
		Name:          req.Name,
		Description:   req.Description,
		Quantity:      req.Quantity,
		Category:      req.Category,
		Barcode:       req.Barcode,
		UnitOfMeasure: req.UnitOfMeasure,
		MinStock:      req.MinStock,
		UserID:        auth.CurrentUser(c).ID,
	}
	if err := pc.repo(c).Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

// List returns active products, optionally filtered by ?category= or
// a ?search= term matching name or barcode.
func (pc *ProductsController) List(c *gin.Context) {
	list, err := pc.repo(c).List(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

// Get returns one product.
func (pc *ProductsController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := pc.repo(c).GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// Update rewrites a product's descriptive fields. Stock levels change
// only through movements.
func (pc *ProductsController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product name is required"})
		return
	}

	p := &entities.Product{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Barcode:       req.Barcode,
		UnitOfMeasure: req.UnitOfMeasure,
		MinStock:      req.MinStock,
	}
	if err := pc.repo(c).Update(c.Request.Context(), p); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Delete soft-removes a product from the catalog.
func (pc *ProductsController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := pc.repo(c).Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// LowStock lists products at or below their minimum stock level.
func (pc *ProductsController) LowStock(c *gin.Context) {
	list, err := pc.repo(c).ListLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list low stock"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

// Categories lists the distinct category names in use.
func (pc *ProductsController) Categories(c *gin.Context) {
	cats, err := pc.repo(c).Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
