package repositories

import (
	"context"
	"time"

	"libtrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TransactionRepository handles borrow transaction data access
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction handle
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create creates a new borrow transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.BorrowTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a transaction by ID with its book and user
func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.BorrowTransaction, error) {
	var tx models.BorrowTransaction
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// List lists all transactions with their books and users, newest first
func (r *TransactionRepository) List(ctx context.Context) ([]*models.BorrowTransaction, error) {
	var txs []*models.BorrowTransaction
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Order("id DESC").
		Find(&txs).Error
	return txs, err
}

// MarkReturned flips a transaction into its terminal state. The status
// predicate makes the transition one-way: a transaction already
// returned matches zero rows.
func (r *TransactionRepository) MarkReturned(ctx context.Context, id uint, returnDate time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("id = ? AND status = ?", id, models.StatusBorrowed).
		Updates(map[string]interface{}{
			"status":      models.StatusReturned,
			"return_date": returnDate,
		})
	return res.RowsAffected, res.Error
}

// CountActiveByBookID counts transactions still borrowed against a book
func (r *TransactionRepository) CountActiveByBookID(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("book_id = ? AND status = ?", bookID, models.StatusBorrowed).
		Count(&count).Error
	return count, err
}

// ActiveBookIDs returns the IDs of all books with at least one active loan
func (r *TransactionRepository) ActiveBookIDs(ctx context.Context) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("status = ? AND book_id IS NOT NULL", models.StatusBorrowed).
		Distinct().
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, err
	}

	active := make(map[uint]bool, len(ids))
	for _, id := range ids {
		active[id] = true
	}
	return active, nil
}

// CountActive counts all transactions still borrowed
func (r *TransactionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("status = ?", models.StatusBorrowed).
		Count(&count).Error
	return count, err
}

// DetachBook nulls the book reference on all transactions for a deleted
// book, keeping the rows as orphaned history.
func (r *TransactionRepository) DetachBook(ctx context.Context, bookID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("book_id = ?", bookID).
		Update("book_id", nil).Error
}
