package services

import (
	"context"
	"errors"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Catalog service errors
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrISBNExists     = errors.New("isbn already exists")
	ErrBookBorrowed   = errors.New("book is currently borrowed")
	ErrNegativeCopies = errors.New("copies_available cannot be negative")
)

// CatalogService owns book records and the copy-count invariant
type CatalogService struct {
	db       *gorm.DB
	bookRepo *repositories.BookRepository
	txRepo   *repositories.TransactionRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	db *gorm.DB,
	bookRepo *repositories.BookRepository,
	txRepo *repositories.TransactionRepository,
) *CatalogService {
	return &CatalogService{
		db:       db,
		bookRepo: bookRepo,
		txRepo:   txRepo,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	CopiesAvailable *int   `json:"copies_available"`
}

// UpdateBookInput represents partial book update input
type UpdateBookInput struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	CopiesAvailable *int    `json:"copies_available"`
}

// List lists all books with their derived borrowed flag
func (s *CatalogService) List(ctx context.Context) ([]*models.BookResponse, error) {
	books, err := s.bookRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.txRepo.ActiveBookIDs(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse(active[book.ID])
	}
	return responses, nil
}

// Get gets a single book
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	borrowed, err := s.HasActiveLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	return book.ToResponse(borrowed), nil
}

// Create creates a new book. copies_available defaults to 1.
func (s *CatalogService) Create(ctx context.Context, input *CreateBookInput) (*models.BookResponse, error) {
	copies := 1
	if input.CopiesAvailable != nil {
		copies = *input.CopiesAvailable
	}
	if copies < 0 {
		return nil, ErrNegativeCopies
	}

	exists, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrISBNExists
	}

	book := &models.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		CopiesAvailable: copies,
	}

	// A concurrent create can slip past the pre-check; the unique index
	// on isbn is the authority.
	if err := s.bookRepo.Create(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrISBNExists
		}
		return nil, err
	}

	return book.ToResponse(false), nil
}

// Update applies a partial field update to a book. The copy count may
// be edited directly here but never below zero; borrow/return flow
// through the lending service instead.
func (s *CatalogService) Update(ctx context.Context, id uint, input *UpdateBookInput) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	values := map[string]interface{}{}

	if input.Title != nil {
		values["title"] = *input.Title
	}
	if input.Author != nil {
		values["author"] = *input.Author
	}
	if input.ISBN != nil && *input.ISBN != book.ISBN {
		taken, err := s.bookRepo.ExistsByISBNExcept(ctx, *input.ISBN, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrISBNExists
		}
		values["isbn"] = *input.ISBN
	}
	if input.CopiesAvailable != nil {
		if *input.CopiesAvailable < 0 {
			return nil, ErrNegativeCopies
		}
		values["copies_available"] = *input.CopiesAvailable
	}

	if len(values) > 0 {
		if err := s.bookRepo.Update(ctx, id, values); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrISBNExists
			}
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes a book. The active-loan check and the delete run in
// one store transaction so a concurrent borrow cannot slip between
// them; historical transactions are detached, not removed.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		books := s.bookRepo.WithTx(tx)
		ledger := s.txRepo.WithTx(tx)

		if _, err := books.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		active, err := ledger.CountActiveByBookID(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrBookBorrowed
		}

		if err := ledger.DetachBook(ctx, id); err != nil {
			return err
		}

		return books.Delete(ctx, id)
	})
}

// HasActiveLoan reports whether any transaction on the book is still borrowed
func (s *CatalogService) HasActiveLoan(ctx context.Context, id uint) (bool, error) {
	count, err := s.txRepo.CountActiveByBookID(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
