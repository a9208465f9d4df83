package handlers

import (
	"errors"
	"time"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles lending ledger endpoints
type TransactionHandler struct {
	lendingService *services.LendingService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(lendingService *services.LendingService) *TransactionHandler {
	return &TransactionHandler{lendingService: lendingService}
}

// BorrowRequest represents borrow request body
type BorrowRequest struct {
	UserID     uint   `json:"user_id"`
	BookID     uint   `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
}

// ReturnRequest represents return request body
type ReturnRequest struct {
	ReturnDate string `json:"return_date"`
}

// List lists all transactions
// @Summary List transactions
// @Description List all borrow transactions joined with book and user
// @Tags Transactions
// @Accept json
// @Produce json
// @Success 200 {array} models.TransactionResponse
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	txs, err := h.lendingService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}
	return response.OK(c, txs)
}

// BorrowInfo answers GET on the borrow endpoint with a bare 200
// @Summary Borrow endpoint probe
// @Tags Transactions
// @Success 200
// @Router /borrow [get]
func (h *TransactionHandler) BorrowInfo(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// ReturnInfo answers GET on the return endpoint with a bare 200
// @Summary Return endpoint probe
// @Tags Transactions
// @Success 200
// @Router /return/{id} [get]
func (h *TransactionHandler) ReturnInfo(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// Borrow creates a borrow transaction
// @Summary Borrow a book
// @Description Lend out one copy of a book to a user
// @Tags Transactions
// @Accept json
// @Produce json
// @Param body body BorrowRequest true "Borrow data"
// @Success 201 {object} models.TransactionResponse
// @Failure 400 {object} response.ErrorDetail
// @Failure 404 {object} response.ErrorDetail
// @Router /borrow [post]
func (h *TransactionHandler) Borrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.UserID == 0 {
		return response.BadRequest(c, "user_id is required")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "book_id is required")
	}

	borrowDate, err := time.Parse(models.DateLayout, req.BorrowDate)
	if err != nil {
		return response.BadRequest(c, "borrow_date must be a valid YYYY-MM-DD date")
	}

	input := &services.BorrowInput{
		UserID:     req.UserID,
		BookID:     req.BookID,
		BorrowDate: borrowDate,
	}

	tx, err := h.lendingService.Borrow(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoCopiesAvailable):
			return response.BadRequest(c, "No copies available.")
		case errors.Is(err, services.ErrFutureBorrowDate):
			return response.BadRequest(c, "borrow_date cannot be in the future.")
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found.")
		case errors.Is(err, services.ErrBorrowerNotFound):
			return response.NotFound(c, "User not found.")
		default:
			return response.InternalServerError(c, "Failed to borrow book")
		}
	}

	return response.Created(c, tx)
}

// Return marks a transaction returned
// @Summary Return a book
// @Description Close a borrow transaction and restore the book's copy count
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path int true "Transaction ID"
// @Param body body ReturnRequest true "Return data"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} response.ErrorDetail
// @Failure 404 {object} response.ErrorDetail
// @Router /return/{id} [post]
func (h *TransactionHandler) Return(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.NotFound(c, "Not found.")
	}

	var req ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	returnDate, err := time.Parse(models.DateLayout, req.ReturnDate)
	if err != nil {
		return response.BadRequest(c, "return_date must be a valid YYYY-MM-DD date")
	}

	tx, err := h.lendingService.Return(c.Context(), id, returnDate)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			return response.NotFound(c, "Not found.")
		case errors.Is(err, services.ErrAlreadyReturned):
			return response.BadRequest(c, "Already returned.")
		case errors.Is(err, services.ErrReturnBeforeBorrow):
			return response.BadRequest(c, "return_date cannot be before borrow_date.")
		default:
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.OK(c, tx)
}
