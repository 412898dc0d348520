package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/database/suppliers"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// SuppliersController manages the suppliers of the selected unit.
type SuppliersController struct{}

func NewSuppliersController() *SuppliersController {
	return &SuppliersController{}
}

func (sc *SuppliersController) repo(c *gin.Context) *suppliers.Repository {
	return suppliers.NewRepository(tenant.BoundAdapter(c))
}

type supplierRequest struct {
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"tax_id"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (sc *SuppliersController) Create(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplier name is required"})
		return
	}
	s := &entities.Supplier{Name: req.Name, TaxID: req.TaxID, Phone: req.Phone, Email: req.Email, Address: req.Address}
	if err := sc.repo(c).Create(c.Request.Context(), s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create supplier"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"supplier": s})
}

func (sc *SuppliersController) List(c *gin.Context) {
	list, err := sc.repo(c).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list suppliers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": list})
}

func (sc *SuppliersController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplier name is required"})
		return
	}
	s := &entities.Supplier{ID: id, Name: req.Name, TaxID: req.TaxID, Phone: req.Phone, Email: req.Email, Address: req.Address}
	if err := sc.repo(c).Update(c.Request.Context(), s); err != nil {
		if errors.Is(err, suppliers.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update supplier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (sc *SuppliersController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := sc.repo(c).Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, suppliers.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete supplier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
