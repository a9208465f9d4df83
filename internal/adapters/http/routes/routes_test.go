package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"libtrack/internal/adapters/http/middleware"
	"libtrack/internal/adapters/http/routes"
	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		Port:    "8000",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	config.AppConfig = cfg

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.CustomErrorHandler,
	})
	routes.Setup(app, db, cfg)

	return app, db
}

// doJSON performs a request and decodes an object body when one is present.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

// Walks the public API with the exact statuses and bodies the frontend
// depends on: bare entity payloads on success, {"detail": ...} errors,
// and the {"message": ...} shape on the guarded book delete.
func TestRoutes_WireContract(t *testing.T) {
	app, db := newTestApp(t)

	user := &models.User{Username: "alice", Email: "alice@example.org", Password: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	// Create a book; the success body is the bare entity.
	resp, body := doJSON(t, app, "POST", "/api/books/", fiber.Map{
		"title":  "Wire Contract",
		"author": "QA",
		"isbn":   "978-0101010101",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Wire Contract", body["title"])
	assert.Equal(t, float64(1), body["copies_available"])
	assert.Equal(t, false, body["is_borrowed"])
	require.Contains(t, body, "id")
	bookID := int(body["id"].(float64))

	// Duplicate ISBN is a 409 with a detail body.
	resp, body = doJSON(t, app, "POST", "/api/books/", fiber.Map{
		"title":  "Same ISBN",
		"author": "Someone Else",
		"isbn":   "978-0101010101",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "A book with this ISBN already exists.", body["detail"])

	// Unknown and non-numeric IDs read as 404 "Not found.".
	resp, body = doJSON(t, app, "GET", "/api/books/99999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found.", body["detail"])

	resp, body = doJSON(t, app, "GET", "/api/books/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found.", body["detail"])

	// GET probes on the action endpoints answer a bare 200.
	resp, _ = doJSON(t, app, "GET", "/api/borrow/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/return/1/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Borrow the only copy.
	resp, body = doJSON(t, app, "POST", "/api/borrow/", fiber.Map{
		"user_id":     user.ID,
		"book_id":     bookID,
		"borrow_date": "2024-01-02",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "borrowed", body["status"])
	assert.Equal(t, "2024-01-02", body["borrow_date"])
	require.Contains(t, body, "id")
	txID := int(body["id"].(float64))

	// A second borrow finds no copies.
	resp, body = doJSON(t, app, "POST", "/api/borrow/", fiber.Map{
		"user_id":     user.ID,
		"book_id":     bookID,
		"borrow_date": "2024-01-03",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No copies available.", body["detail"])

	// A future borrow date is rejected.
	resp, body = doJSON(t, app, "POST", "/api/borrow/", fiber.Map{
		"user_id":     user.ID,
		"book_id":     bookID,
		"borrow_date": "2999-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "borrow_date cannot be in the future.", body["detail"])

	// Deleting a borrowed book uses the message body, not detail.
	resp, body = doJSON(t, app, "DELETE", fmt.Sprintf("/api/books/%d", bookID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot delete a book that is currently borrowed.", body["message"])
	assert.NotContains(t, body, "detail")

	// The transactions list is public and 200.
	resp, _ = doJSON(t, app, "GET", "/api/transactions/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Return the book.
	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/return/%d/", txID), fiber.Map{
		"return_date": "2024-01-05",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "returned", body["status"])
	assert.Equal(t, "2024-01-05", body["return_date"])

	// Returning twice is rejected with the exact body.
	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/return/%d/", txID), fiber.Map{
		"return_date": "2024-01-06",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already returned.", body["detail"])

	// Returning an unknown transaction is a 404 "Not found.".
	resp, body = doJSON(t, app, "POST", "/api/return/99999/", fiber.Map{
		"return_date": "2024-01-06",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found.", body["detail"])

	// The delete goes through once the book is back, with an empty 204.
	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/books/%d", bookID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// User management requires a token; the lending surface does not.
func TestRoutes_AuthBoundary(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/users/", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/books/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
