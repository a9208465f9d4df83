package services_test

import (
	"context"
	"testing"
	"time"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLendingService_BorrowAndReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "carol")
	book := f.createBook(t, "Round Trip", "978-1000000001", 2)

	tx, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-03-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusBorrowed, tx.Status)
	assert.Equal(t, "2024-03-01", tx.BorrowDate)
	assert.Nil(t, tx.ReturnDate)
	require.NotNil(t, tx.Book)
	assert.True(t, tx.Book.IsBorrowed)
	require.NotNil(t, tx.User)
	assert.Equal(t, "carol", tx.User.Username)
	assert.Equal(t, 1, f.bookCopies(t, book.ID))

	returned, err := f.lending.Return(ctx, tx.ID, date("2024-03-08"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, "2024-03-08", *returned.ReturnDate)
	assert.Equal(t, 2, f.bookCopies(t, book.ID))

	// The book is free again.
	got, err := f.catalog.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBorrowed)
}

func TestLendingService_BorrowExhaustsCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "dave")
	book := f.createBook(t, "Single Copy", "978-1000000002", 1)

	_, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-03-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.bookCopies(t, book.ID))

	// Second borrow finds no copies and must leave no trace.
	before := f.transactionCount(t)
	_, err = f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-03-02"),
	})
	assert.ErrorIs(t, err, services.ErrNoCopiesAvailable)
	assert.Equal(t, before, f.transactionCount(t))
	assert.Equal(t, 0, f.bookCopies(t, book.ID))
}

func TestLendingService_BorrowAtZeroCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "erin")
	book := f.createBook(t, "Out Of Stock", "978-1000000003", 0)

	_, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-03-01"),
	})
	assert.ErrorIs(t, err, services.ErrNoCopiesAvailable)
	assert.Equal(t, int64(0), f.transactionCount(t))
	assert.Equal(t, 0, f.bookCopies(t, book.ID))
}

func TestLendingService_BorrowValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "frank")
	book := f.createBook(t, "Valid Book", "978-1000000004", 1)

	t.Run("future_borrow_date", func(t *testing.T) {
		tomorrow := time.Now().UTC().AddDate(0, 0, 1)
		_, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     user.ID,
			BookID:     book.ID,
			BorrowDate: tomorrow,
		})
		assert.ErrorIs(t, err, services.ErrFutureBorrowDate)
	})

	t.Run("today_is_allowed", func(t *testing.T) {
		now := time.Now().UTC()
		todayMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		tx, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     user.ID,
			BookID:     book.ID,
			BorrowDate: todayMidnight,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusBorrowed, tx.Status)
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     99999,
			BookID:     book.ID,
			BorrowDate: date("2024-03-01"),
		})
		assert.ErrorIs(t, err, services.ErrBorrowerNotFound)
	})

	t.Run("unknown_book", func(t *testing.T) {
		_, err := f.lending.Borrow(ctx, &services.BorrowInput{
			UserID:     user.ID,
			BookID:     99999,
			BorrowDate: date("2024-03-01"),
		})
		assert.ErrorIs(t, err, services.ErrBookNotFound)
	})
}

func TestLendingService_Return(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "grace")
	book := f.createBook(t, "Return Cases", "978-1000000005", 1)

	tx, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-04-01"),
	})
	require.NoError(t, err)

	t.Run("return_before_borrow_date", func(t *testing.T) {
		_, err := f.lending.Return(ctx, tx.ID, date("2024-03-31"))
		assert.ErrorIs(t, err, services.ErrReturnBeforeBorrow)
	})

	t.Run("same_day_return", func(t *testing.T) {
		returned, err := f.lending.Return(ctx, tx.ID, date("2024-04-01"))
		require.NoError(t, err)
		require.NotNil(t, returned.ReturnDate)
		assert.Equal(t, "2024-04-01", *returned.ReturnDate)
		assert.Equal(t, 1, f.bookCopies(t, book.ID))
	})

	t.Run("double_return_is_rejected", func(t *testing.T) {
		_, err := f.lending.Return(ctx, tx.ID, date("2024-04-02"))
		assert.ErrorIs(t, err, services.ErrAlreadyReturned)

		// Copy count was not incremented a second time.
		assert.Equal(t, 1, f.bookCopies(t, book.ID))
	})

	t.Run("unknown_transaction", func(t *testing.T) {
		_, err := f.lending.Return(ctx, 99999, date("2024-04-02"))
		assert.ErrorIs(t, err, services.ErrTransactionNotFound)
	})
}

func TestLendingService_ReturnDetachedTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "heidi")
	book := f.createBook(t, "Soon Deleted", "978-1000000006", 1)

	tx, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: date("2024-05-01"),
	})
	require.NoError(t, err)

	// Simulate a book removed out-of-band: the transaction loses its
	// reference but stays open.
	require.NoError(t, f.db.Model(&models.BorrowTransaction{}).
		Where("id = ?", tx.ID).
		Update("book_id", nil).Error)

	returned, err := f.lending.Return(ctx, tx.ID, date("2024-05-05"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, returned.Status)
	assert.Nil(t, returned.BookID)

	// No book row was touched by the skipped increment.
	assert.Equal(t, 0, f.bookCopies(t, book.ID))
}

func TestLendingService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "ivan")
	first := f.createBook(t, "First Out", "978-1000000007", 1)
	second := f.createBook(t, "Second Out", "978-1000000008", 1)

	txA, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: user.ID, BookID: first.ID, BorrowDate: date("2024-06-01"),
	})
	require.NoError(t, err)

	txB, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: user.ID, BookID: second.ID, BorrowDate: date("2024-06-02"),
	})
	require.NoError(t, err)

	_, err = f.lending.Return(ctx, txA.ID, date("2024-06-03"))
	require.NoError(t, err)

	txs, err := f.lending.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Newest first.
	assert.Equal(t, txB.ID, txs[0].ID)
	assert.Equal(t, txA.ID, txs[1].ID)

	// Joined books carry the derived borrowed flag.
	require.NotNil(t, txs[0].Book)
	assert.True(t, txs[0].Book.IsBorrowed)
	require.NotNil(t, txs[1].Book)
	assert.False(t, txs[1].Book.IsBorrowed)
}

// Full circulation walk-through: two copies, three readers competing.
func TestLendingService_CirculationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")
	book := f.createBook(t, "Popular Title", "978-1000000009", 2)

	// Alice and Bob take the two copies.
	txAlice, err := f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: alice.ID, BookID: book.ID, BorrowDate: date("2024-07-01"),
	})
	require.NoError(t, err)

	_, err = f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: bob.ID, BookID: book.ID, BorrowDate: date("2024-07-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.bookCopies(t, book.ID))

	// Carol is turned away.
	_, err = f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: carol.ID, BookID: book.ID, BorrowDate: date("2024-07-02"),
	})
	assert.ErrorIs(t, err, services.ErrNoCopiesAvailable)

	// Alice returns; Carol can now borrow.
	_, err = f.lending.Return(ctx, txAlice.ID, date("2024-07-03"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.bookCopies(t, book.ID))

	_, err = f.lending.Borrow(ctx, &services.BorrowInput{
		UserID: carol.ID, BookID: book.ID, BorrowDate: date("2024-07-04"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.bookCopies(t, book.ID))

	// The book still counts as borrowed while any loan is open.
	got, err := f.catalog.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBorrowed)

	// And cannot be deleted while in circulation.
	err = f.catalog.Delete(ctx, book.ID)
	assert.ErrorIs(t, err, services.ErrBookBorrowed)
}
