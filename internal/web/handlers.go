package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/capitalmatch/importer/internal/importer"
	"github.com/capitalmatch/importer/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview accepts exactly one uploaded file and returns the decoded,
// mapped, and validated candidate set without persisting anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	if len(files) > 1 {
		writeError(w, http.StatusBadRequest, "exactly one file per upload")
		return
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}

	preview, err := s.service.Preview(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, decodeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	duplicates, err := s.service.CheckDuplicates(r.Context(), req.Keys)
	if err != nil {
		logging.FromContext(r.Context()).Error("check duplicates failed", "error", err)
		writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"duplicates": duplicates})
}

func (s *Server) handleImportBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Candidates []importer.Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "no candidates provided")
		return
	}

	result := s.service.ImportBatch(r.Context(), req.Candidates)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no ids provided")
		return
	}

	result := s.service.DeleteBatch(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, result)
}

// decodeStatus maps pipeline pre-flight errors to HTTP status codes.
func decodeStatus(err error) int {
	var de *importer.DecodeError
	if errors.Is(err, importer.ErrEmptyFile) ||
		errors.Is(err, importer.ErrUnsupportedKind) ||
		errors.As(err, &de) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
