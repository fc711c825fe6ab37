package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/valet-ai/valet/internal/knowledge"
)

type documentsResponse struct {
	Documents []knowledge.DocumentInfo `json:"documents"`
}

type deleteResponse struct {
	DocumentID string `json:"document_id"`
	Removed    int    `json:"removed"`
}

// handleUpload ingests one file from a multipart form under the "file"
// field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file field is required", err)
		return
	}
	defer func() { _ = file.Close() }()

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("saving upload", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not store upload", err)
		return
	}

	result, err := s.ingestor.IngestFile(r.Context(), path)
	if err != nil {
		s.logger.Error("ingestion failed", "path", path, "error", err)
		s.writeError(w, http.StatusUnprocessableEntity, "could not ingest document", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

// saveUpload writes the uploaded file into the upload directory under
// its original base name, so the document id derives from the name the
// user chose.
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	dir := s.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ingestor.Documents(r.Context())
	if err != nil {
		s.logger.Error("listing documents", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list documents", err)
		return
	}
	if docs == nil {
		docs = []knowledge.DocumentInfo{}
	}
	s.writeJSON(w, http.StatusOK, documentsResponse{Documents: docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "document id is required", nil)
		return
	}

	removed, err := s.ingestor.RemoveDocument(r.Context(), id)
	if err != nil {
		s.logger.Error("deleting document", "document_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not delete document", err)
		return
	}
	if removed == 0 {
		s.writeError(w, http.StatusNotFound, "document not found", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, deleteResponse{DocumentID: id, Removed: removed})
}
