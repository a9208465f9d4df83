package handlers

import (
	"errors"
	"strconv"
	"strings"

	"libtrack/internal/core/services"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	catalogService *services.CatalogService
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalogService *services.CatalogService) *BookHandler {
	return &BookHandler{catalogService: catalogService}
}

// parseID parses a numeric path parameter. Non-numeric IDs behave like
// unknown ones (404), matching the route contract.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSuffix(c.Params(name), "/")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// CreateBookRequest represents create book request body
type CreateBookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	CopiesAvailable *int   `json:"copies_available"`
}

// UpdateBookRequest represents partial book update request body
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	CopiesAvailable *int    `json:"copies_available"`
}

// List lists all books
// @Summary List books
// @Description List all books with their derived is_borrowed flag
// @Tags Books
// @Accept json
// @Produce json
// @Success 200 {array} models.BookResponse
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	books, err := h.catalogService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}
	return response.OK(c, books)
}

// Get gets a single book
// @Summary Get book
// @Description Get a book by ID
// @Tags Books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.BookResponse
// @Failure 404 {object} response.ErrorDetail
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.NotFound(c, "Not found.")
	}

	book, err := h.catalogService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Not found.")
		}
		return response.InternalServerError(c, "Failed to get book")
	}
	return response.OK(c, book)
}

// Create creates a new book
// @Summary Create book
// @Description Add a book to the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Param body body CreateBookRequest true "Book data"
// @Success 201 {object} models.BookResponse
// @Failure 400 {object} response.ErrorDetail
// @Failure 409 {object} response.ErrorDetail
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return response.BadRequest(c, "Title is required")
	}
	if strings.TrimSpace(req.Author) == "" {
		return response.BadRequest(c, "Author is required")
	}
	if strings.TrimSpace(req.ISBN) == "" {
		return response.BadRequest(c, "ISBN is required")
	}

	input := &services.CreateBookInput{
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		ISBN:            strings.TrimSpace(req.ISBN),
		CopiesAvailable: req.CopiesAvailable,
	}

	book, err := h.catalogService.Create(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrISBNExists):
			return response.Conflict(c, "A book with this ISBN already exists.")
		case errors.Is(err, services.ErrNegativeCopies):
			return response.BadRequest(c, "copies_available cannot be negative.")
		default:
			return response.InternalServerError(c, "Failed to create book")
		}
	}

	return response.Created(c, book)
}

// Update applies a partial update to a book
// @Summary Update book
// @Description Update book fields; status/return_date of transactions are untouchable here
// @Tags Books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param body body UpdateBookRequest true "Fields to update"
// @Success 200 {object} models.BookResponse
// @Failure 400 {object} response.ErrorDetail
// @Failure 404 {object} response.ErrorDetail
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.NotFound(c, "Not found.")
	}

	var req UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.UpdateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		CopiesAvailable: req.CopiesAvailable,
	}

	book, err := h.catalogService.Update(c.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Not found.")
		case errors.Is(err, services.ErrISBNExists):
			return response.Conflict(c, "A book with this ISBN already exists.")
		case errors.Is(err, services.ErrNegativeCopies):
			return response.BadRequest(c, "copies_available cannot be negative.")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.OK(c, book)
}

// Delete removes a book
// @Summary Delete book
// @Description Delete a book unless it is currently borrowed
// @Tags Books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 204
// @Failure 400 {object} response.MessageBody
// @Failure 404 {object} response.ErrorDetail
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.NotFound(c, "Not found.")
	}

	err := h.catalogService.Delete(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Not found.")
		case errors.Is(err, services.ErrBookBorrowed):
			return response.Message(c, fiber.StatusBadRequest, "Cannot delete a book that is currently borrowed.")
		default:
			return response.InternalServerError(c, "Failed to delete book")
		}
	}

	return response.NoContent(c)
}
