package response

import "github.com/gofiber/fiber/v2"

// ErrorDetail is the standard error body. The book-delete endpoint uses
// MessageBody instead; both shapes are part of the public API contract.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// MessageBody is the error body used by the book-delete endpoint.
type MessageBody struct {
	Message string `json:"message"`
}

// OK sends a 200 response with the given payload
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

// Created sends a 201 response with the given payload
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// NoContent sends an empty 204 response
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Detail sends an error response with a detail field
func Detail(c *fiber.Ctx, statusCode int, detail string) error {
	return c.Status(statusCode).JSON(ErrorDetail{Detail: detail})
}

// Message sends an error response with a message field
func Message(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(MessageBody{Message: message})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, detail string) error {
	return Detail(c, fiber.StatusBadRequest, detail)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, detail string) error {
	return Detail(c, fiber.StatusUnauthorized, detail)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, detail string) error {
	return Detail(c, fiber.StatusNotFound, detail)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, detail string) error {
	return Detail(c, fiber.StatusConflict, detail)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, detail string) error {
	return Detail(c, fiber.StatusInternalServerError, detail)
}
