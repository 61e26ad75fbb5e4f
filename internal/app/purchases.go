package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"unishelf/pkg/domain"
	"unishelf/pkg/store"
)

// PurchaseReport is a ledger slice with its aggregate revenue.
type PurchaseReport struct {
	Purchases      []domain.Purchase
	TotalRevenue   float64
	TextbooksCount int
}

// CreatePurchase appends a ledger entry after the guard checks pass. The
// duplicate check is the storage-level uniqueness constraint, so concurrent
// requests for the same pair cannot both land.
func (a *App) CreatePurchase(principal domain.User, textbookID string, amount float64) (domain.Purchase, error) {
	if textbookID == "" || amount == 0 {
		return domain.Purchase{}, validationf("please provide textbookId and amount")
	}
	if principal.Role != domain.RoleStudent {
		return domain.Purchase{}, forbidden("only students can purchase textbooks")
	}
	textbook, ok, err := a.store.GetTextbook(textbookID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("fetch textbook: %w", err)
	}
	if !ok {
		return domain.Purchase{}, notFound("textbook not found")
	}
	if amount != textbook.Price {
		return domain.Purchase{}, validationf("amount does not match textbook price")
	}
	purchase := domain.Purchase{
		ID:         uuid.NewString(),
		TextbookID: textbookID,
		StudentID:  principal.ID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.AppendPurchase(purchase); err != nil {
		if errors.Is(err, store.ErrDuplicatePurchase) {
			return domain.Purchase{}, conflict("you have already purchased this textbook")
		}
		return domain.Purchase{}, fmt.Errorf("append purchase: %w", err)
	}
	return purchase, nil
}

// GetPurchase returns one entry; admins or the buying student only.
func (a *App) GetPurchase(principal domain.User, id string) (domain.Purchase, error) {
	purchase, ok, err := a.store.GetPurchase(id)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("fetch purchase: %w", err)
	}
	if !ok {
		return domain.Purchase{}, notFound("purchase not found")
	}
	if principal.Role != domain.RoleAdmin && principal.ID != purchase.StudentID {
		return domain.Purchase{}, forbidden("not authorized to view this purchase")
	}
	return purchase, nil
}

// ListPurchases returns the full ledger; admins only.
func (a *App) ListPurchases(principal domain.User) ([]domain.Purchase, error) {
	if principal.Role != domain.RoleAdmin {
		return nil, forbidden("not authorized to view all purchases")
	}
	return a.store.ListPurchases()
}

// MyPurchases returns the caller's purchases with enriched textbook records.
// A textbook deleted since purchase yields a nil embed.
func (a *App) MyPurchases(ctx context.Context, principal domain.User) ([]domain.PurchaseWithTextbook, error) {
	purchases, err := a.store.ListPurchasesByStudent(principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return a.withTextbooks(ctx, purchases)
}

// CheckPurchase reports whether the caller already owns the textbook.
func (a *App) CheckPurchase(principal domain.User, textbookID string) (*domain.Purchase, error) {
	purchase, ok, err := a.store.GetPurchaseByPair(principal.ID, textbookID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &purchase, nil
}

// PurchasesByStudent returns one student's purchases; admins and lecturers.
func (a *App) PurchasesByStudent(principal domain.User, studentID string) ([]domain.Purchase, error) {
	if principal.Role != domain.RoleAdmin && principal.Role != domain.RoleLecturer {
		return nil, forbidden("not authorized to view student purchases")
	}
	return a.store.ListPurchasesByStudent(studentID)
}

// PurchasesByTextbook returns a textbook's ledger slice with revenue; admin
// or the owning lecturer.
func (a *App) PurchasesByTextbook(principal domain.User, textbookID string) (PurchaseReport, error) {
	textbook, ok, err := a.store.GetTextbook(textbookID)
	if err != nil {
		return PurchaseReport{}, fmt.Errorf("fetch textbook: %w", err)
	}
	if !ok {
		return PurchaseReport{}, notFound("textbook not found")
	}
	if principal.Role != domain.RoleAdmin &&
		(principal.Role != domain.RoleLecturer || principal.ID != textbook.LecturerID) {
		return PurchaseReport{}, forbidden("not authorized to view purchases for this textbook")
	}
	purchases, err := a.store.ListPurchasesByTextbook(textbookID)
	if err != nil {
		return PurchaseReport{}, fmt.Errorf("list purchases: %w", err)
	}
	return PurchaseReport{Purchases: purchases, TotalRevenue: sumAmounts(purchases)}, nil
}

// PurchasesByLecturer returns the ledger slice across all of a lecturer's
// textbooks; admin or that lecturer only.
func (a *App) PurchasesByLecturer(principal domain.User, lecturerID string) (PurchaseReport, error) {
	if principal.Role != domain.RoleAdmin &&
		(principal.Role != domain.RoleLecturer || principal.ID != lecturerID) {
		return PurchaseReport{}, forbidden("not authorized to view purchases for this lecturer")
	}
	textbooks, err := a.store.ListTextbooks(store.TextbookFilter{LecturerID: lecturerID})
	if err != nil {
		return PurchaseReport{}, fmt.Errorf("list textbooks: %w", err)
	}
	ids := make([]string, 0, len(textbooks))
	for _, t := range textbooks {
		ids = append(ids, t.ID)
	}
	purchases, err := a.store.ListPurchasesByTextbookIDs(ids)
	if err != nil {
		return PurchaseReport{}, fmt.Errorf("list purchases: %w", err)
	}
	return PurchaseReport{
		Purchases:      purchases,
		TotalRevenue:   sumAmounts(purchases),
		TextbooksCount: len(textbooks),
	}, nil
}

// PurchaseStats folds the ledger into totals; recomputed per request, never
// cached. Lecturers see only their own textbooks' entries.
func (a *App) PurchaseStats(principal domain.User) (domain.PurchaseStats, error) {
	if principal.Role != domain.RoleAdmin && principal.Role != domain.RoleLecturer {
		return domain.PurchaseStats{}, forbidden("not authorized to view purchase statistics")
	}
	var purchases []domain.Purchase
	var err error
	if principal.Role == domain.RoleLecturer {
		report, reportErr := a.PurchasesByLecturer(principal, principal.ID)
		if reportErr != nil {
			return domain.PurchaseStats{}, reportErr
		}
		purchases = report.Purchases
	} else {
		purchases, err = a.store.ListPurchases()
		if err != nil {
			return domain.PurchaseStats{}, fmt.Errorf("list purchases: %w", err)
		}
	}
	stats := domain.PurchaseStats{
		TotalPurchases: len(purchases),
		TotalRevenue:   sumAmounts(purchases),
	}
	cutoff := time.Now().UTC().AddDate(0, -6, 0)
	for _, p := range purchases {
		if p.CreatedAt.After(cutoff) {
			stats.RecentPurchases++
		}
	}
	if stats.TotalPurchases > 0 {
		stats.AverageAmount = stats.TotalRevenue / float64(stats.TotalPurchases)
	}
	return stats, nil
}

func (a *App) withTextbooks(ctx context.Context, purchases []domain.Purchase) ([]domain.PurchaseWithTextbook, error) {
	res := make([]domain.PurchaseWithTextbook, 0, len(purchases))
	for _, p := range purchases {
		item := domain.PurchaseWithTextbook{Purchase: p}
		textbook, ok, err := a.store.GetTextbook(p.TextbookID)
		if err != nil {
			return nil, fmt.Errorf("fetch textbook: %w", err)
		}
		if ok {
			enriched, err := a.enrich(ctx, textbook)
			if err != nil {
				return nil, err
			}
			item.Textbook = &enriched
		}
		res = append(res, item)
	}
	return res, nil
}

func sumAmounts(purchases []domain.Purchase) float64 {
	var total float64
	for _, p := range purchases {
		total += p.Amount
	}
	return total
}
