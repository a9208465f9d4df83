package services

import (
	"context"
	"errors"
	"time"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Lending service errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBorrowerNotFound    = errors.New("borrower not found")
	ErrNoCopiesAvailable   = errors.New("no copies available")
	ErrAlreadyReturned     = errors.New("transaction already returned")
	ErrFutureBorrowDate    = errors.New("borrow date cannot be in the future")
	ErrReturnBeforeBorrow  = errors.New("return date cannot be before borrow date")
)

// LendingService owns borrow transactions and the borrow/return state
// machine. All copy-count mutation goes through the guarded
// AdjustCopies update so concurrent calls on the same book serialize
// at the database row.
type LendingService struct {
	db       *gorm.DB
	bookRepo *repositories.BookRepository
	txRepo   *repositories.TransactionRepository
	userRepo repositories.UserRepository
}

// NewLendingService creates a new lending service
func NewLendingService(
	db *gorm.DB,
	bookRepo *repositories.BookRepository,
	txRepo *repositories.TransactionRepository,
	userRepo repositories.UserRepository,
) *LendingService {
	return &LendingService{
		db:       db,
		bookRepo: bookRepo,
		txRepo:   txRepo,
		userRepo: userRepo,
	}
}

// BorrowInput represents borrow input
type BorrowInput struct {
	UserID     uint
	BookID     uint
	BorrowDate time.Time
}

// List lists all transactions joined with their books and users
func (s *LendingService) List(ctx context.Context) ([]*models.TransactionResponse, error) {
	txs, err := s.txRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	// The full ledger is in hand, so the borrowed flag of each joined
	// book can be derived without extra queries.
	active := make(map[uint]bool)
	for _, tx := range txs {
		if tx.Status == models.StatusBorrowed && tx.BookID != nil {
			active[*tx.BookID] = true
		}
	}

	responses := make([]*models.TransactionResponse, len(txs))
	for i, tx := range txs {
		borrowed := false
		if tx.BookID != nil {
			borrowed = active[*tx.BookID]
		}
		responses[i] = tx.ToResponse(borrowed)
	}
	return responses, nil
}

// Get gets a single transaction
func (s *LendingService) Get(ctx context.Context, id uint) (*models.TransactionResponse, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return s.toResponse(ctx, tx)
}

// Borrow lends out one copy of a book. The capacity check, the copy
// decrement and the transaction insert commit together or not at all:
// the decrement is a guarded UPDATE that affects zero rows once the
// count is exhausted, which aborts the store transaction before the
// ledger row is written.
func (s *LendingService) Borrow(ctx context.Context, input *BorrowInput) (*models.TransactionResponse, error) {
	if input.BorrowDate.After(today()) {
		return nil, ErrFutureBorrowDate
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowerNotFound
		}
		return nil, err
	}

	if _, err := s.bookRepo.GetByID(ctx, input.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	bookID := input.BookID
	borrowTx := &models.BorrowTransaction{
		UserID:     input.UserID,
		BookID:     &bookID,
		BorrowDate: input.BorrowDate,
		Status:     models.StatusBorrowed,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.bookRepo.WithTx(tx).AdjustCopies(ctx, input.BookID, -1)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNoCopiesAvailable
		}
		return s.txRepo.WithTx(tx).Create(ctx, borrowTx)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, borrowTx.ID)
}

// Return closes a borrow transaction. The status flip and the copy
// increment commit together; the increment is skipped without error
// when the book was deleted in the meantime (orphaned transaction).
func (s *LendingService) Return(ctx context.Context, id uint, returnDate time.Time) (*models.TransactionResponse, error) {
	borrowTx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if borrowTx.IsReturned() {
		return nil, ErrAlreadyReturned
	}
	if returnDate.Before(borrowTx.BorrowDate) {
		return nil, ErrReturnBeforeBorrow
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.txRepo.WithTx(tx).MarkReturned(ctx, id, returnDate)
		if err != nil {
			return err
		}
		if rows == 0 {
			// A concurrent return won the race.
			return ErrAlreadyReturned
		}

		if borrowTx.BookID != nil {
			if _, err := s.bookRepo.WithTx(tx).AdjustCopies(ctx, *borrowTx.BookID, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *LendingService) toResponse(ctx context.Context, tx *models.BorrowTransaction) (*models.TransactionResponse, error) {
	borrowed := false
	if tx.BookID != nil {
		count, err := s.txRepo.CountActiveByBookID(ctx, *tx.BookID)
		if err != nil {
			return nil, err
		}
		borrowed = count > 0
	}
	return tx.ToResponse(borrowed), nil
}

// today returns the current calendar date, truncated for comparison
// against midnight-anchored wire dates.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
