package services_test

import (
	"context"
	"testing"
	"time"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/core/services"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture bundles a fresh in-memory database with the services under test.
type fixture struct {
	db      *gorm.DB
	catalog *services.CatalogService
	lending *services.LendingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	// Every pooled connection would otherwise get its own empty
	// in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	bookRepo := repositories.NewBookRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)

	return &fixture{
		db:      db,
		catalog: services.NewCatalogService(db, bookRepo, txRepo),
		lending: services.NewLendingService(db, bookRepo, txRepo, userRepo),
	}
}

func (f *fixture) createBook(t *testing.T, title, isbn string, copies int) *models.BookResponse {
	t.Helper()

	book, err := f.catalog.Create(context.Background(), &services.CreateBookInput{
		Title:           title,
		Author:          "Test Author",
		ISBN:            isbn,
		CopiesAvailable: &copies,
	})
	require.NoError(t, err)
	return book
}

func (f *fixture) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) bookCopies(t *testing.T, id uint) int {
	t.Helper()

	var book models.Book
	require.NoError(t, f.db.First(&book, id).Error)
	return book.CopiesAvailable
}

func (f *fixture) transactionCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&models.BorrowTransaction{}).Count(&count).Error)
	return count
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}
