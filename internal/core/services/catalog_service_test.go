package services_test

import (
	"context"
	"testing"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCatalogService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("defaults_copies_to_one", func(t *testing.T) {
		book, err := f.catalog.Create(ctx, &services.CreateBookInput{
			Title:  "The Go Programming Language",
			Author: "Donovan & Kernighan",
			ISBN:   "978-0134190440",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, book.CopiesAvailable)
		assert.False(t, book.IsBorrowed)
	})

	t.Run("honours_explicit_copies", func(t *testing.T) {
		book := f.createBook(t, "Clean Architecture", "978-0134494166", 3)
		assert.Equal(t, 3, book.CopiesAvailable)
	})

	t.Run("zero_copies_is_valid", func(t *testing.T) {
		book := f.createBook(t, "Rare Manuscript", "978-0000000001", 0)
		assert.Equal(t, 0, book.CopiesAvailable)

		// The explicit 0 must reach the row; a column default would
		// silently replace it.
		assert.Equal(t, 0, f.bookCopies(t, book.ID))
	})

	t.Run("rejects_negative_copies", func(t *testing.T) {
		copies := -1
		_, err := f.catalog.Create(ctx, &services.CreateBookInput{
			Title:           "Bad Count",
			Author:          "Nobody",
			ISBN:            "978-0000000002",
			CopiesAvailable: &copies,
		})
		assert.ErrorIs(t, err, services.ErrNegativeCopies)
	})

	t.Run("rejects_duplicate_isbn", func(t *testing.T) {
		_, err := f.catalog.Create(ctx, &services.CreateBookInput{
			Title:  "Duplicate",
			Author: "Someone Else",
			ISBN:   "978-0134190440",
		})
		assert.ErrorIs(t, err, services.ErrISBNExists)
	})

	t.Run("unique_index_backs_the_isbn_check", func(t *testing.T) {
		// A racing duplicate that slips past the pre-check must come
		// back as a translated duplicated-key error, which Create maps
		// to ErrISBNExists.
		require.NoError(t, f.db.Create(&models.Book{
			Title: "First In", Author: "A", ISBN: "978-0000000009", CopiesAvailable: 1,
		}).Error)

		err := f.db.Create(&models.Book{
			Title: "Second In", Author: "B", ISBN: "978-0000000009", CopiesAvailable: 1,
		}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}

func TestCatalogService_GetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zebra := f.createBook(t, "Zebra Stripes", "978-1111111111", 2)
	apple := f.createBook(t, "Apple Orchards", "978-2222222222", 1)
	user := f.createUser(t, "alice")

	_, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     zebra.ID,
		BorrowDate: date("2024-01-10"),
	})
	require.NoError(t, err)

	t.Run("get_reports_borrowed_flag", func(t *testing.T) {
		got, err := f.catalog.Get(ctx, zebra.ID)
		require.NoError(t, err)
		assert.True(t, got.IsBorrowed)
		assert.Equal(t, 1, got.CopiesAvailable)

		got, err = f.catalog.Get(ctx, apple.ID)
		require.NoError(t, err)
		assert.False(t, got.IsBorrowed)
	})

	t.Run("get_unknown_id", func(t *testing.T) {
		_, err := f.catalog.Get(ctx, 99999)
		assert.ErrorIs(t, err, services.ErrBookNotFound)
	})

	t.Run("list_is_ordered_by_title", func(t *testing.T) {
		books, err := f.catalog.List(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "Apple Orchards", books[0].Title)
		assert.Equal(t, "Zebra Stripes", books[1].Title)
		assert.False(t, books[0].IsBorrowed)
		assert.True(t, books[1].IsBorrowed)
	})
}

func TestCatalogService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := f.createBook(t, "Original Title", "978-3333333333", 2)
	other := f.createBook(t, "Other Book", "978-4444444444", 1)

	t.Run("partial_update_leaves_other_fields", func(t *testing.T) {
		title := "Renamed Title"
		updated, err := f.catalog.Update(ctx, book.ID, &services.UpdateBookInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed Title", updated.Title)
		assert.Equal(t, "Test Author", updated.Author)
		assert.Equal(t, 2, updated.CopiesAvailable)
	})

	t.Run("copies_can_be_edited_directly", func(t *testing.T) {
		copies := 5
		updated, err := f.catalog.Update(ctx, book.ID, &services.UpdateBookInput{CopiesAvailable: &copies})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.CopiesAvailable)
	})

	t.Run("rejects_negative_copies", func(t *testing.T) {
		copies := -2
		_, err := f.catalog.Update(ctx, book.ID, &services.UpdateBookInput{CopiesAvailable: &copies})
		assert.ErrorIs(t, err, services.ErrNegativeCopies)
	})

	t.Run("rejects_isbn_taken_by_another_book", func(t *testing.T) {
		isbn := other.ISBN
		_, err := f.catalog.Update(ctx, book.ID, &services.UpdateBookInput{ISBN: &isbn})
		assert.ErrorIs(t, err, services.ErrISBNExists)
	})

	t.Run("own_isbn_is_not_a_conflict", func(t *testing.T) {
		isbn := "978-3333333333"
		updated, err := f.catalog.Update(ctx, book.ID, &services.UpdateBookInput{ISBN: &isbn})
		require.NoError(t, err)
		assert.Equal(t, isbn, updated.ISBN)
	})

	t.Run("unknown_id", func(t *testing.T) {
		title := "Ghost"
		_, err := f.catalog.Update(ctx, 99999, &services.UpdateBookInput{Title: &title})
		assert.ErrorIs(t, err, services.ErrBookNotFound)
	})
}

func TestCatalogService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "bob")

	t.Run("delete_free_book", func(t *testing.T) {
		book := f.createBook(t, "Disposable", "978-5555555555", 1)
		require.NoError(t, f.catalog.Delete(ctx, book.ID))

		_, err := f.catalog.Get(ctx, book.ID)
		assert.ErrorIs(t, err, services.ErrBookNotFound)
	})

	t.Run("delete_borrowed_book_is_rejected", func(t *testing.T) {
		book := f.createBook(t, "In Circulation", "978-6666666666", 1)
		_, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     user.ID,
			BookID:     book.ID,
			BorrowDate: date("2024-02-01"),
		})
		require.NoError(t, err)

		err = f.catalog.Delete(ctx, book.ID)
		assert.ErrorIs(t, err, services.ErrBookBorrowed)

		// Still present.
		_, err = f.catalog.Get(ctx, book.ID)
		assert.NoError(t, err)
	})

	t.Run("delete_after_return_detaches_history", func(t *testing.T) {
		book := f.createBook(t, "Returned Then Gone", "978-7777777777", 1)
		tx, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     user.ID,
			BookID:     book.ID,
			BorrowDate: date("2024-02-01"),
		})
		require.NoError(t, err)

		_, err = f.lending.Return(ctx, tx.ID, date("2024-02-10"))
		require.NoError(t, err)

		require.NoError(t, f.catalog.Delete(ctx, book.ID))

		// The historical transaction survives with its book reference cleared.
		var row models.BorrowTransaction
		require.NoError(t, f.db.First(&row, tx.ID).Error)
		assert.Nil(t, row.BookID)
		assert.Equal(t, models.StatusReturned, row.Status)
	})

	t.Run("unknown_id", func(t *testing.T) {
		err := f.catalog.Delete(ctx, 99999)
		assert.ErrorIs(t, err, services.ErrBookNotFound)
	})
}
