package store

import (
	"errors"

	"unishelf/pkg/domain"
)

// ErrDuplicatePurchase is returned when a (student, textbook) pair already
// holds a ledger entry. The uniqueness lives at the storage layer so two
// concurrent purchases cannot both slip past an existence check.
var ErrDuplicatePurchase = errors.New("purchase already exists for this student and textbook")

// TextbookFilter narrows catalog listings. Zero values match everything.
type TextbookFilter struct {
	Category   string
	LecturerID string
	Search     string // case-insensitive match on title or author
}

// Store defines persistence operations for users, textbooks, and purchases.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// textbooks
	SaveTextbook(domain.Textbook) error
	ListTextbooks(TextbookFilter) ([]domain.Textbook, error)
	GetTextbook(id string) (domain.Textbook, bool, error)
	DeleteTextbook(id string) error

	// purchases (append-only; AppendPurchase returns ErrDuplicatePurchase
	// when the pair already exists)
	AppendPurchase(domain.Purchase) error
	GetPurchase(id string) (domain.Purchase, bool, error)
	GetPurchaseByPair(studentID, textbookID string) (domain.Purchase, bool, error)
	ListPurchases() ([]domain.Purchase, error)
	ListPurchasesByStudent(studentID string) ([]domain.Purchase, error)
	ListPurchasesByTextbook(textbookID string) ([]domain.Purchase, error)
	ListPurchasesByTextbookIDs(textbookIDs []string) ([]domain.Purchase, error)
}
