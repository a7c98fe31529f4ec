package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/query"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CustomerCommander defines the write-side operations used by CustomerHandler.
type CustomerCommander interface {
	Signup(ctx context.Context, cmd cqrs.SignupCommand) (int64, error)
	ProvisionAccount(ctx context.Context, cmd cqrs.ProvisionAccountCommand) (*models.Account, error)
	TransferFunds(ctx context.Context, cmd cqrs.TransferFundsCommand) (*models.Transaction, error)
}

// CustomerQuerier defines the read-side operations used by CustomerHandler.
type CustomerQuerier interface {
	GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.CustomerView, error)
	GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.AccountView, error)
	ListTransactions(ctx context.Context, q cqrs.ListCustomerTransactionsQuery) ([]models.TransactionView, error)
	ListCustomers(ctx context.Context) ([]models.CustomerView, error)
	Login(ctx context.Context, q cqrs.LoginQuery) (*models.LoginView, error)
}

// CustomerHandler handles customer-related HTTP requests.
type CustomerHandler struct {
	commands CustomerCommander
	queries  CustomerQuerier
}

type SignupRequest struct {
	FirstName string `json:"f_name" validate:"required,max=100"`
	LastName  string `json:"l_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Password  string `json:"pass" validate:"required,min=6,bcryptlen"`
	CNIC      string `json:"cnic" validate:"required,max=20"`
	Username  string `json:"u_name" validate:"required,max=50"`
	Role      string `json:"role"`
}

type SignupResponse struct {
	Message string `json:"message"`
	CustID  int64  `json:"cust_id"`
}

type CreateAccountRequest struct {
	CustID NumericID `json:"cust_id"`
}

type CreateAccountResponse struct {
	Message string          `json:"message"`
	Account *models.Account `json:"account"`
}

type TransferRequest struct {
	CustID          NumericID       `json:"cust_id"`
	ReceiverAccount NumericID       `json:"receiver_account"`
	Amount          decimal.Decimal `json:"amount"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

func NewCustomerHandler(commands CustomerCommander, queries CustomerQuerier) *CustomerHandler {
	return &CustomerHandler{commands: commands, queries: queries}
}

func (h *CustomerHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ledger.ValidateRole(req.Role); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	custID, err := h.commands.Signup(c.Request.Context(), cqrs.SignupCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		CNIC:      req.CNIC,
		Username:  req.Username,
		Role:      req.Role,
	})
	if err != nil {
		_ = c.Error(err)
		if ledger.KindOf(err) == ledger.KindValidation {
			middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Signup failed")
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{Message: "Signup successful", CustID: custID})
}

func (h *CustomerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CustID <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid or missing Customer ID")
		return
	}

	account, err := h.commands.ProvisionAccount(c.Request.Context(), cqrs.ProvisionAccountCommand{CustID: int64(req.CustID)})
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, ledger.ErrAccountExists):
			middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrCustomerNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, err.Error())
		case ledger.KindOf(err) == ledger.KindValidation:
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid or missing Customer ID")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	c.JSON(http.StatusCreated, CreateAccountResponse{Message: "Account created successfully", Account: account})
}

// Transfer keeps the historical contract: only malformed requests are 400s,
// every ledger refusal is a 500 carrying the ledger's message.
func (h *CustomerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.commands.TransferFunds(c.Request.Context(), cqrs.TransferFundsCommand{
		SenderCustID:  int64(req.CustID),
		ReceiverAccNo: int64(req.ReceiverAccount),
		Amount:        req.Amount,
	})
	if err != nil {
		_ = c.Error(err)
		switch ledger.KindOf(err) {
		case ledger.KindValidation:
			middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		case ledger.KindNotFound, ledger.KindConflict:
			middleware.RespondWithError(c, http.StatusInternalServerError, err.Error())
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Transfer failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transfer successful"})
}

func (h *CustomerHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.queries.Login(c.Request.Context(), cqrs.LoginQuery{Email: req.Email, Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, query.ErrUserNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, query.ErrIncorrectPassword):
			middleware.RespondWithError(c, http.StatusUnauthorized, "Incorrect password")
		default:
			_ = c.Error(err)
			middleware.RespondWithError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *CustomerHandler) GetBalance(c *gin.Context) {
	custID, ok := custIDFromQuery(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid or missing Customer ID")
		return
	}

	view, err := h.queries.GetBalance(c.Request.Context(), cqrs.GetBalanceQuery{CustID: custID})
	if err != nil {
		if errors.Is(err, query.ErrAccountNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
			return
		}
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch balance")
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{Balance: view.Balance})
}

func (h *CustomerHandler) GetProfile(c *gin.Context) {
	custID, ok := custIDFromQuery(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusBadRequest, "Customer ID is required")
		return
	}

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{CustID: custID})
	if err != nil {
		if errors.Is(err, query.ErrCustomerNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Customer not found")
			return
		}
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch profile details")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *CustomerHandler) ListTransactions(c *gin.Context) {
	custID, ok := custIDFromQuery(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusBadRequest, "Customer ID is required")
		return
	}

	views, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListCustomerTransactionsQuery{CustID: custID})
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	views, err := h.queries.ListCustomers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch customers")
		return
	}

	c.JSON(http.StatusOK, views)
}

// custIDFromQuery reads a positive ?cust_id= parameter.
func custIDFromQuery(c *gin.Context) (int64, bool) {
	custID, err := strconv.ParseInt(c.Query("cust_id"), 10, 64)
	if err != nil || custID <= 0 {
		return 0, false
	}
	return custID, true
}

// NumericID is an identifier that may arrive as a JSON number or as a string
// of digits; the frontend posts form values without converting them.
type NumericID int64

func (n *NumericID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric id %s: %w", data, err)
	}
	*n = NumericID(v)
	return nil
}
