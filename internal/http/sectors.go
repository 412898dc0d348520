package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/database/sectors"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// SectorsController manages the sectors of the selected unit.
type SectorsController struct{}

func NewSectorsController() *SectorsController {
	return &SectorsController{}
}

func (sc *SectorsController) repo(c *gin.Context) *sectors.Repository {
	return sectors.NewRepository(tenant.BoundAdapter(c))
}

type sectorRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Responsible string `json:"responsible"`
}

func (sc *SectorsController) Create(c *gin.Context) {
	var req sectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sector name is required"})
		return
	}
	s := &entities.Sector{Name: req.Name, Description: req.Description, Responsible: req.Responsible}
	if err := sc.repo(c).Create(c.Request.Context(), s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create sector"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sector": s})
}

func (sc *SectorsController) List(c *gin.Context) {
	list, err := sc.repo(c).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sectors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sectors": list})
}

func (sc *SectorsController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sector name is required"})
		return
	}
	s := &entities.Sector{ID: id, Name: req.Name, Description: req.Description, Responsible: req.Responsible}
	if err := sc.repo(c).Update(c.Request.Context(), s); err != nil {
		if errors.Is(err, sectors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sector not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update sector"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (sc *SectorsController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := sc.repo(c).Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, sectors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sector not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sector"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
