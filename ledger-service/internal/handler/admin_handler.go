package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/eaglebank/ledger/ledger-service/internal/command"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminCommander interface {
	AddProduct(ctx context.Context, cmd cqrs.AddProductCommand) (*models.Product, error)
}

type AdminQuerier interface {
	ListCustomers(ctx context.Context) ([]models.CustomerView, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	Summary(ctx context.Context) (*models.DashboardSummary, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListInventories(ctx context.Context) ([]models.InventoryView, error)
}

// AdminHandler serves the admin dashboard. It never mutates balances.
type AdminHandler struct {
	commands AdminCommander
	queries  AdminQuerier
}

type AddProductRequest struct {
	ProductName string          `json:"product_name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type AddProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

func NewAdminHandler(commands AdminCommander, queries AdminQuerier) *AdminHandler {
	return &AdminHandler{commands: commands, queries: queries}
}

func (h *AdminHandler) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	product, err := h.commands.AddProduct(c.Request.Context(), cqrs.AddProductCommand{
		ProductName: req.ProductName,
		Description: req.Description,
		BasePrice:   req.BasePrice,
	})
	if err != nil {
		switch {
		case errors.Is(err, command.ErrInvalidProduct):
			middleware.RespondWithError(c, http.StatusBadRequest, "Product name is required")
		case errors.Is(err, command.ErrInvalidPrice):
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid price")
		case errors.Is(err, command.ErrProductExists):
			middleware.RespondWithError(c, http.StatusConflict, "Product already exists")
		default:
			_ = c.Error(err)
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to add product")
		}
		return
	}

	c.JSON(http.StatusCreated, AddProductResponse{Message: "Product added", Product: product})
}

func (h *AdminHandler) ListCustomers(c *gin.Context) {
	respondList(c, "Failed to fetch customers", func(ctx context.Context) (any, error) {
		return h.queries.ListCustomers(ctx)
	})
}

func (h *AdminHandler) ListTransactions(c *gin.Context) {
	respondList(c, "Failed to fetch transactions", func(ctx context.Context) (any, error) {
		return h.queries.ListTransactions(ctx)
	})
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	respondList(c, "Failed to fetch products", func(ctx context.Context) (any, error) {
		return h.queries.ListProducts(ctx)
	})
}

func (h *AdminHandler) ListInventories(c *gin.Context) {
	respondList(c, "Failed to fetch inventories", func(ctx context.Context) (any, error) {
		return h.queries.ListInventories(ctx)
	})
}

func (h *AdminHandler) Summary(c *gin.Context) {
	summary, err := h.queries.Summary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func respondList(c *gin.Context, failure string, fetch func(context.Context) (any, error)) {
	rows, err := fetch(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, failure)
		return
	}
	c.JSON(http.StatusOK, rows)
}
