package server

import (
	"io"
	"net/http"
	"strings"

	"unishelf/internal/app"
	"unishelf/pkg/domain"
	"unishelf/pkg/store"
)

func (s *Server) handleTextbooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTextbooks(w, r)
	case http.MethodPost:
		s.handleCreateTextbook(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleTextbookSubtree routes everything under /textbooks/: upload
// endpoints, scoped listings, download URLs and per-id operations.
func (s *Server) handleTextbookSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/textbooks/")
	switch {
	case rest == "upload":
		s.authenticated(s.handleUploadPDF).ServeHTTP(w, r)
	case rest == "upload/thumbnail":
		s.authenticated(s.handleUploadThumbnail).ServeHTTP(w, r)
	case rest == "files/download":
		s.authenticated(s.handleDownloadURL).ServeHTTP(w, r)
	case strings.HasPrefix(rest, "lecturer/"):
		s.listTextbooks(w, r, store.TextbookFilter{LecturerID: strings.TrimPrefix(rest, "lecturer/")})
	case strings.HasPrefix(rest, "category/"):
		s.listTextbooks(w, r, store.TextbookFilter{Category: strings.TrimPrefix(rest, "category/")})
	case rest != "" && !strings.Contains(rest, "/"):
		s.handleTextbookByID(w, r, rest)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleListTextbooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.listTextbooks(w, r, store.TextbookFilter{
		Category:   q.Get("category"),
		LecturerID: q.Get("lecturerId"),
		Search:     q.Get("search"),
	})
}

func (s *Server) listTextbooks(w http.ResponseWriter, r *http.Request, filter store.TextbookFilter) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	textbooks, err := s.app.ListTextbooks(r.Context(), filter)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(textbooks), "data": textbooks})
}

func (s *Server) handleTextbookByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		textbook, err := s.app.GetTextbook(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": textbook})
	case http.MethodPut:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			s.handleUpdateTextbook(w, r, user, id)
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			s.handleDeleteTextbook(w, r, user, id)
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateTextbook(w http.ResponseWriter, r *http.Request) {
	s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		var in app.CreateTextbookInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		textbook, err := s.app.CreateTextbook(r.Context(), user, in)
		if err != nil {
			s.audit(r, "textbook_create", "fail", "user_id", user.ID)
			writeAppError(w, r, err)
			return
		}
		s.audit(r, "textbook_create", "success", "user_id", user.ID, "textbook_id", textbook.ID)
		writeJSON(w, http.StatusCreated, map[string]any{"data": textbook})
	}).ServeHTTP(w, r)
}

func (s *Server) handleUpdateTextbook(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	var in app.UpdateTextbookInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	textbook, err := s.app.UpdateTextbook(r.Context(), user, id, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": textbook})
}

func (s *Server) handleDeleteTextbook(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if err := s.app.DeleteTextbook(r.Context(), user, id); err != nil {
		s.audit(r, "textbook_delete", "fail", "user_id", user.ID, "textbook_id", id)
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "textbook_delete", "success", "user_id", user.ID, "textbook_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "textbook deleted"})
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request, user domain.User) {
	s.handleUpload(w, r, user, app.FieldPDF)
}

func (s *Server) handleUploadThumbnail(w http.ResponseWriter, r *http.Request, user domain.User) {
	s.handleUpload(w, r, user, app.FieldThumbnail)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user domain.User, field string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if user.Role != domain.RoleLecturer && user.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "lecturer access required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form field "+field)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	asset, err := s.app.UploadAsset(r.Context(), field, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.audit(r, "asset_upload", "fail", "user_id", user.ID, "filename", header.Filename)
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "asset_upload", "success", "user_id", user.ID, "file_key", asset.FileKey)
	writeJSON(w, http.StatusCreated, map[string]any{"data": asset})
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	fileKey := r.URL.Query().Get("fileKey")
	if fileKey == "" {
		writeError(w, http.StatusBadRequest, "fileKey is required")
		return
	}
	url, err := s.app.DownloadURL(r.Context(), fileKey, r.URL.Query().Get("fileName"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"downloadUrl": url}})
}

func (s *Server) handleViewURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	fileKey := strings.TrimPrefix(r.URL.Path, "/files/view/")
	if fileKey == "" {
		writeError(w, http.StatusBadRequest, "fileKey is required")
		return
	}
	url, err := s.app.ViewURL(r.Context(), fileKey)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"viewUrl": url}})
}
