package server

import (
	"net/http"
	"strings"

	"unishelf/internal/app"
	"unishelf/pkg/domain"
)

type createPurchaseRequest struct {
	TextbookID string  `json:"textbookId"`
	Amount     float64 `json:"amount"`
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreatePurchase(w, r, user)
	case http.MethodGet:
		purchases, err := s.app.ListPurchases(user)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(purchases), "data": purchases})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req createPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	purchase, err := s.app.CreatePurchase(user, req.TextbookID, req.Amount)
	if err != nil {
		s.audit(r, "purchase_create", "fail", "user_id", user.ID, "textbook_id", req.TextbookID)
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "purchase_create", "success", "user_id", user.ID, "purchase_id", purchase.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"data": purchase})
}

func (s *Server) handlePurchaseSubtree(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/purchases/")
	switch {
	case rest == "my-purchases":
		purchases, err := s.app.MyPurchases(r.Context(), user)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(purchases), "data": purchases})
	case rest == "stats":
		stats, err := s.app.PurchaseStats(user)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": stats})
	case strings.HasPrefix(rest, "check/"):
		s.handleCheckPurchase(w, r, user, strings.TrimPrefix(rest, "check/"))
	case strings.HasPrefix(rest, "student/"):
		purchases, err := s.app.PurchasesByStudent(user, strings.TrimPrefix(rest, "student/"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(purchases), "data": purchases})
	case strings.HasPrefix(rest, "textbook/"):
		report, err := s.app.PurchasesByTextbook(user, strings.TrimPrefix(rest, "textbook/"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writePurchaseReport(w, report)
	case strings.HasPrefix(rest, "lecturer/"):
		report, err := s.app.PurchasesByLecturer(user, strings.TrimPrefix(rest, "lecturer/"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writePurchaseReport(w, report)
	case rest != "" && !strings.Contains(rest, "/"):
		purchase, err := s.app.GetPurchase(user, rest)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": purchase})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleCheckPurchase(w http.ResponseWriter, r *http.Request, user domain.User, textbookID string) {
	purchase, err := s.app.CheckPurchase(user, textbookID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	payload := map[string]any{"hasPurchased": purchase != nil}
	if purchase != nil {
		payload["purchase"] = purchase
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": payload})
}

func writePurchaseReport(w http.ResponseWriter, report app.PurchaseReport) {
	payload := map[string]any{
		"count":        len(report.Purchases),
		"data":         report.Purchases,
		"totalRevenue": report.TotalRevenue,
	}
	if report.TextbooksCount > 0 {
		payload["textbooksCount"] = report.TextbooksCount
	}
	writeJSON(w, http.StatusOK, payload)
}
