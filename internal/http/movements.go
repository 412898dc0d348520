package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/database/movements"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// MovementsController records stock entries and exits for the selected
// unit and serves movement history.
type MovementsController struct{}

func NewMovementsController() *MovementsController {
	return &MovementsController{}
}

func (mc *MovementsController) repo(c *gin.Context) *movements.Repository {
	return movements.NewRepository(tenant.BoundAdapter(c))
}

type movementRequest struct {
	ProductID    int64  `json:"product_id" binding:"required"`
	Quantity     int64  `json:"quantity" binding:"required"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	Invoice      string `json:"invoice"`
	ServiceOrder string `json:"service_order"`
	Reason       string `json:"reason"`
}

func (mc *MovementsController) record(c *gin.Context, direction entities.MovementDirection) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and quantity are required"})
		return
	}

	m := &entities.Movement{
		ProductID:    req.ProductID,
		Direction:    direction,
		Quantity:     req.Quantity,
		UserID:       auth.CurrentUser(c).ID,
		Source:       req.Source,
		Destination:  req.Destination,
		Invoice:      req.Invoice,
		ServiceOrder: req.ServiceOrder,
		Reason:       req.Reason,
	}
	if err := mc.repo(c).Record(c.Request.Context(), m); err != nil {
		switch {
		case errors.Is(err, movements.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, movements.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, movements.ErrInvalidQuantity), errors.Is(err, movements.ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record movement"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movement": m})
}

// Entry records an incoming stock movement.
func (mc *MovementsController) Entry(c *gin.Context) {
	mc.record(c, entities.MovementIn)
}

// Exit records an outgoing stock movement.
func (mc *MovementsController) Exit(c *gin.Context) {
	mc.record(c, entities.MovementOut)
}

// List returns recent movements, newest first. ?limit= caps the count.
func (mc *MovementsController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := mc.repo(c).List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list movements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": list})
}

// History returns one product's movement history, newest first.
func (mc *MovementsController) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := mc.repo(c).ListByProduct(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": list})
}
