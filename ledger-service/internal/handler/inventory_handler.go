package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/eaglebank/ledger/ledger-service/internal/command"
	"github.com/eaglebank/ledger/ledger-service/internal/query"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InventoryCommander interface {
	AddInventory(ctx context.Context, cmd cqrs.AddInventoryCommand) (*models.InventoryItem, error)
}

type InventoryQuerier interface {
	ListSellerInventory(ctx context.Context, q cqrs.ListSellerInventoryQuery) ([]models.InventoryView, error)
	ListAvailable(ctx context.Context) ([]models.InventoryView, error)
}

// InventoryHandler serves seller stock and the buyer-facing catalogue.
type InventoryHandler struct {
	commands InventoryCommander
	queries  InventoryQuerier
}

type AddInventoryRequest struct {
	CustID      NumericID       `json:"cust_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type AddInventoryResponse struct {
	Message   string                `json:"message"`
	Inventory *models.InventoryItem `json:"inventory"`
}

func NewInventoryHandler(commands InventoryCommander, queries InventoryQuerier) *InventoryHandler {
	return &InventoryHandler{commands: commands, queries: queries}
}

func (h *InventoryHandler) AddInventory(c *gin.Context) {
	var req AddInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CustID <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	item, err := h.commands.AddInventory(c.Request.Context(), cqrs.AddInventoryCommand{
		CustID:      int64(req.CustID),
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Price:       req.Price,
	})
	if err != nil {
		switch {
		case errors.Is(err, command.ErrInvalidProduct):
			middleware.RespondWithError(c, http.StatusBadRequest, "Product name is required")
		case errors.Is(err, command.ErrInvalidQuantity):
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid quantity")
		case errors.Is(err, command.ErrInvalidPrice):
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid price")
		case errors.Is(err, command.ErrCustomerNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "Customer not found")
		case errors.Is(err, command.ErrNotSeller):
			middleware.RespondWithError(c, http.StatusForbidden, "Only sellers can add products to inventory")
		case errors.Is(err, command.ErrProductNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "Product not found in products list")
		default:
			_ = c.Error(err)
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to add product to inventory")
		}
		return
	}

	c.JSON(http.StatusCreated, AddInventoryResponse{Message: "Product added to inventory", Inventory: item})
}

func (h *InventoryHandler) ListSellerInventory(c *gin.Context) {
	custID, ok := custIDFromQuery(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	views, err := h.queries.ListSellerInventory(c.Request.Context(), cqrs.ListSellerInventoryQuery{CustID: custID})
	if err != nil {
		switch {
		case errors.Is(err, query.ErrCustomerNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "Customer not found")
		case errors.Is(err, query.ErrNotSeller):
			middleware.RespondWithError(c, http.StatusForbidden, "Only sellers can access inventory")
		default:
			_ = c.Error(err)
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch inventory")
		}
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *InventoryHandler) ListAvailable(c *gin.Context) {
	views, err := h.queries.ListAvailable(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch inventory items")
		return
	}

	c.JSON(http.StatusOK, views)
}
