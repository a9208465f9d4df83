package repositories

import (
	"context"

	"libtrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles book data access
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction handle
func (r *BookRepository) WithTx(tx *gorm.DB) *BookRepository {
	return &BookRepository{db: tx}
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List lists all books ordered by title
func (r *BookRepository) List(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("title ASC").Find(&books).Error
	return books, err
}

// Update applies a partial field update to a book
func (r *BookRepository) Update(ctx context.Context, id uint, values map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(values).Error
}

// Delete removes a book
func (r *BookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// ExistsByISBN checks if a book with the given ISBN exists
func (r *BookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("isbn = ?", isbn).
		Count(&count).Error
	return count > 0, err
}

// ExistsByISBNExcept checks if another book (different ID) holds the given ISBN
func (r *BookRepository) ExistsByISBNExcept(ctx context.Context, isbn string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("isbn = ? AND id <> ?", isbn, id).
		Count(&count).Error
	return count > 0, err
}

// AdjustCopies applies a copy-count delta as a single guarded UPDATE.
// The WHERE predicate refuses any change that would drive the count
// negative, so the database serializes concurrent adjustments; the
// returned row count is zero when the book is missing or out of copies.
func (r *BookRepository) AdjustCopies(ctx context.Context, id uint, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND copies_available + ? >= 0", id, delta).
		UpdateColumn("copies_available", gorm.Expr("copies_available + ?", delta))
	return res.RowsAffected, res.Error
}
