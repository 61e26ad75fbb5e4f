package app

import (
	"context"
	"testing"

	"unishelf/pkg/domain"
)

func TestCreatePurchaseHappyPathAndConflict(t *testing.T) {
	a, dataStore, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	textbook := createTextbook(t, a, lecturer, "Calculus", 45.99)

	purchase, err := a.CreatePurchase(student, textbook.ID, 45.99)
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if purchase.StudentID != student.ID || purchase.TextbookID != textbook.ID {
		t.Fatalf("unexpected purchase %+v", purchase)
	}

	_, err = a.CreatePurchase(student, textbook.ID, 45.99)
	assertKind(t, err, KindConflict)

	// Exactly one ledger row survives the retry.
	rows, err := dataStore.ListPurchasesByStudent(student.ID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(rows))
	}
}

func TestCreatePurchaseGuards(t *testing.T) {
	a, dataStore, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	textbook := createTextbook(t, a, lecturer, "Calculus", 45.99)

	_, err := a.CreatePurchase(student, "", 45.99)
	assertKind(t, err, KindValidation)

	_, err = a.CreatePurchase(lecturer, textbook.ID, 45.99)
	assertKind(t, err, KindForbidden)

	_, err = a.CreatePurchase(student, "missing-id", 45.99)
	assertKind(t, err, KindNotFound)

	// Amount must match the current price exactly; no ledger row on mismatch.
	_, err = a.CreatePurchase(student, textbook.ID, 45.98)
	assertKind(t, err, KindValidation)
	rows, err := dataStore.ListPurchases()
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty ledger, got %d rows", len(rows))
	}
}

func TestGetPurchaseVisibility(t *testing.T) {
	a, _, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	buyer := registerUser(t, a, "buyer@example.edu", domain.RoleStudent)
	bystander := registerUser(t, a, "bystander@example.edu", domain.RoleStudent)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	textbook := createTextbook(t, a, lecturer, "Calculus", 45.99)
	purchase, err := a.CreatePurchase(buyer, textbook.ID, 45.99)
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	if _, err := a.GetPurchase(buyer, purchase.ID); err != nil {
		t.Fatalf("buyer view: %v", err)
	}
	if _, err := a.GetPurchase(admin, purchase.ID); err != nil {
		t.Fatalf("admin view: %v", err)
	}
	_, err = a.GetPurchase(bystander, purchase.ID)
	assertKind(t, err, KindForbidden)
	_, err = a.GetPurchase(admin, "missing-id")
	assertKind(t, err, KindNotFound)
}

func TestLecturerScopedViewsRequireSelf(t *testing.T) {
	a, _, _ := newTestApp(t)
	lec1 := registerUser(t, a, "lec1@example.edu", domain.RoleLecturer)
	lec2 := registerUser(t, a, "lec2@example.edu", domain.RoleLecturer)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	book1 := createTextbook(t, a, lec1, "Calculus", 45.99)
	if _, err := a.CreatePurchase(student, book1.ID, 45.99); err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	// A lecturer sees their own report but not a colleague's.
	report, err := a.PurchasesByLecturer(lec1, lec1.ID)
	if err != nil {
		t.Fatalf("own report: %v", err)
	}
	if len(report.Purchases) != 1 || report.TotalRevenue != 45.99 || report.TextbooksCount != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	_, err = a.PurchasesByLecturer(lec1, lec2.ID)
	assertKind(t, err, KindForbidden)

	if _, err := a.PurchasesByLecturer(admin, lec1.ID); err != nil {
		t.Fatalf("admin report: %v", err)
	}
	_, err = a.PurchasesByLecturer(student, lec1.ID)
	assertKind(t, err, KindForbidden)
}

func TestPurchasesByTextbookOwnership(t *testing.T) {
	a, _, _ := newTestApp(t)
	lec1 := registerUser(t, a, "lec1@example.edu", domain.RoleLecturer)
	lec2 := registerUser(t, a, "lec2@example.edu", domain.RoleLecturer)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	book := createTextbook(t, a, lec1, "Calculus", 45.99)
	if _, err := a.CreatePurchase(student, book.ID, 45.99); err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	report, err := a.PurchasesByTextbook(lec1, book.ID)
	if err != nil {
		t.Fatalf("owner report: %v", err)
	}
	if report.TotalRevenue != 45.99 {
		t.Fatalf("expected revenue 45.99, got %v", report.TotalRevenue)
	}
	_, err = a.PurchasesByTextbook(lec2, book.ID)
	assertKind(t, err, KindForbidden)
	if _, err := a.PurchasesByTextbook(admin, book.ID); err != nil {
		t.Fatalf("admin report: %v", err)
	}
	_, err = a.PurchasesByTextbook(admin, "missing-id")
	assertKind(t, err, KindNotFound)
}

func TestCheckPurchase(t *testing.T) {
	a, _, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	book := createTextbook(t, a, lecturer, "Calculus", 45.99)

	got, err := a.CheckPurchase(student, book.ID)
	if err != nil {
		t.Fatalf("check before purchase: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no purchase yet")
	}

	if _, err := a.CreatePurchase(student, book.ID, 45.99); err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	got, err = a.CheckPurchase(student, book.ID)
	if err != nil {
		t.Fatalf("check after purchase: %v", err)
	}
	if got == nil || got.TextbookID != book.ID {
		t.Fatalf("expected purchase record, got %+v", got)
	}
}

func TestMyPurchasesEmbedsEnrichedTextbooks(t *testing.T) {
	a, _, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	book := createTextbook(t, a, lecturer, "Calculus", 45.99)
	if _, err := a.CreatePurchase(student, book.ID, 45.99); err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	mine, err := a.MyPurchases(context.Background(), student)
	if err != nil {
		t.Fatalf("my purchases: %v", err)
	}
	if len(mine) != 1 || mine[0].Textbook == nil {
		t.Fatalf("expected embedded textbook, got %+v", mine)
	}
	if mine[0].Textbook.PdfURL == "" {
		t.Fatalf("expected fresh signed URL on embedded textbook")
	}

	// Deleting the textbook leaves the ledger entry with a nil embed.
	if err := a.DeleteTextbook(context.Background(), lecturer, book.ID); err != nil {
		t.Fatalf("delete textbook: %v", err)
	}
	mine, err = a.MyPurchases(context.Background(), student)
	if err != nil {
		t.Fatalf("my purchases after delete: %v", err)
	}
	if len(mine) != 1 || mine[0].Textbook != nil {
		t.Fatalf("expected ledger entry without embed, got %+v", mine)
	}
}

func TestPurchaseStats(t *testing.T) {
	a, _, _ := newTestApp(t)
	lec1 := registerUser(t, a, "lec1@example.edu", domain.RoleLecturer)
	lec2 := registerUser(t, a, "lec2@example.edu", domain.RoleLecturer)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	s1 := registerUser(t, a, "s1@example.edu", domain.RoleStudent)
	s2 := registerUser(t, a, "s2@example.edu", domain.RoleStudent)
	book1 := createTextbook(t, a, lec1, "Calculus", 40)
	book2 := createTextbook(t, a, lec2, "Physics", 60)
	if _, err := a.CreatePurchase(s1, book1.ID, 40); err != nil {
		t.Fatalf("purchase 1: %v", err)
	}
	if _, err := a.CreatePurchase(s2, book1.ID, 40); err != nil {
		t.Fatalf("purchase 2: %v", err)
	}
	if _, err := a.CreatePurchase(s1, book2.ID, 60); err != nil {
		t.Fatalf("purchase 3: %v", err)
	}

	stats, err := a.PurchaseStats(admin)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.TotalPurchases != 3 || stats.TotalRevenue != 140 {
		t.Fatalf("unexpected admin stats %+v", stats)
	}
	if stats.RecentPurchases != 3 {
		t.Fatalf("expected all purchases within 6 months, got %d", stats.RecentPurchases)
	}
	if stats.AverageAmount < 46.6 || stats.AverageAmount > 46.7 {
		t.Fatalf("unexpected average %v", stats.AverageAmount)
	}

	// Lecturer stats fold only their own textbooks' ledger entries.
	lecStats, err := a.PurchaseStats(lec1)
	if err != nil {
		t.Fatalf("lecturer stats: %v", err)
	}
	if lecStats.TotalPurchases != 2 || lecStats.TotalRevenue != 80 {
		t.Fatalf("unexpected lecturer stats %+v", lecStats)
	}

	_, err = a.PurchaseStats(s1)
	assertKind(t, err, KindForbidden)
}

func TestListPurchasesAdminOnly(t *testing.T) {
	a, _, _ := newTestApp(t)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)

	if _, err := a.ListPurchases(admin); err != nil {
		t.Fatalf("admin list: %v", err)
	}
	_, err := a.ListPurchases(student)
	assertKind(t, err, KindForbidden)
}
