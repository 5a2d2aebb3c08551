package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/filesearch"
	"github.com/rohannevrikar/panta-flows-v2/internal/objstore"
)

const maxUploadBytes = 32 << 20

// FileHandler covers uploads into the retrieval corpus. The searchable copy
// lives with the retrieval provider; raw bytes are archived in the object
// store when one is configured.
type FileHandler struct {
	search  *filesearch.Client
	archive *objstore.Store
}

func NewFileHandler(search *filesearch.Client, archive *objstore.Store) *FileHandler {
	return &FileHandler{search: search, archive: archive}
}

// POST /api/files/upload  (multipart, field "file")
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}

	fileID, err := h.search.Upload(r.Context(), header.Filename, content)
	if err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}

	if h.archive != nil {
		contentType := header.Header.Get("Content-Type")
		if err := h.archive.Put(r.Context(), fileID, header.Filename, contentType, content); err != nil {
			// The searchable copy exists; losing the archive copy is logged,
			// not surfaced.
			log.Printf("files: archive %s: %v", fileID, err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"file_id":  fileID,
		"filename": header.Filename,
		"size":     len(content),
	})
}

// GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.search.ListFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// GET /api/files/{file_id}
func (h *FileHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.search.FileInfo(r.Context(), chi.URLParam(r, "file_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": info})
}

// DELETE /api/files/{file_id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")
	if err := h.search.DeleteFile(r.Context(), fileID); err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}
	if h.archive != nil {
		if err := h.archive.Remove(r.Context(), fileID); err != nil {
			log.Printf("files: remove archive %s: %v", fileID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/files/search
func (h *FileHandler) Search(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query   string   `json:"query"`
		FileIDs []string `json:"file_ids"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Query == "" {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "query is required")
		return
	}
	answer, err := h.search.Search(r.Context(), in.Query, in.FileIDs)
	if err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
