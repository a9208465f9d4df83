package models

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout is the wire format for borrow/return dates.
const DateLayout = "2006-01-02"

// BorrowTransaction status values
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// ============================================================
// Catalog
// ============================================================

// Book represents the books table
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Author          string    `gorm:"size:200;not null" json:"author"`
	ISBN            string    `gorm:"column:isbn;uniqueIndex;size:20;not null" json:"isbn"`
	// No column default: GORM drops zero-value fields from the INSERT
	// when one is set, which would turn an explicit 0 into the default.
	// The default-to-1 policy lives in the catalog service.
	CopiesAvailable int       `gorm:"not null" json:"copies_available"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO. IsBorrowed is derived from the lending ledger
// (true while at least one transaction on the book is still "borrowed").
type BookResponse struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	CopiesAvailable int    `json:"copies_available"`
	IsBorrowed      bool   `json:"is_borrowed"`
}

func (b *Book) ToResponse(isBorrowed bool) *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		CopiesAvailable: b.CopiesAvailable,
		IsBorrowed:      isBorrowed,
	}
}

// ============================================================
// Lending ledger
// ============================================================

// BorrowTransaction represents the borrow_transactions table.
// BookID is nullable: deleting a book detaches its historical
// transactions instead of cascading, so the audit trail survives.
type BorrowTransaction struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	BookID     *uint      `gorm:"index" json:"book_id"`
	BorrowDate time.Time  `gorm:"type:date;not null" json:"borrow_date"`
	ReturnDate *time.Time `gorm:"type:date" json:"return_date"`
	Status     string     `gorm:"size:10;not null;default:'borrowed'" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:SET NULL" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (BorrowTransaction) TableName() string {
	return "borrow_transactions"
}

// IsReturned reports whether the transaction reached its terminal state.
func (t *BorrowTransaction) IsReturned() bool {
	return t.Status == StatusReturned
}

// TransactionResponse DTO. Dates are rendered as YYYY-MM-DD strings;
// Book and User are included when the row was loaded with its relations.
type TransactionResponse struct {
	ID         uint          `json:"id"`
	UserID     uint          `json:"user_id"`
	BookID     *uint         `json:"book_id"`
	BorrowDate string        `json:"borrow_date"`
	ReturnDate *string       `json:"return_date"`
	Status     string        `json:"status"`
	Book       *BookResponse `json:"book,omitempty"`
	User       *UserResponse `json:"user,omitempty"`
}

func (t *BorrowTransaction) ToResponse(bookBorrowed bool) *TransactionResponse {
	resp := &TransactionResponse{
		ID:         t.ID,
		UserID:     t.UserID,
		BookID:     t.BookID,
		BorrowDate: t.BorrowDate.Format(DateLayout),
		Status:     t.Status,
	}

	if t.ReturnDate != nil {
		formatted := t.ReturnDate.Format(DateLayout)
		resp.ReturnDate = &formatted
	}

	if t.Book != nil {
		resp.Book = t.Book.ToResponse(bookBorrowed)
	}
	if t.User != nil {
		resp.User = t.User.ToResponse()
	}

	return resp
}

// ============================================================
// Accounts
// ============================================================

// User represents the users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	FirstName string         `gorm:"size:100" json:"first_name"`
	LastName  string         `gorm:"size:100" json:"last_name"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsActive:  u.IsActive,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&BorrowTransaction{},
	)
}
