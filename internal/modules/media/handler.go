package media

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

// multipart overhead allowed on top of the image itself
const formSlack = 64 * 1024

// Handler exposes image upload and serving.
type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts POST /api/upload (wrapped with guard) and
// GET /uploads/{filename}.
func (h *Handler) RegisterRoutes(r chi.Router, guard ...func(http.Handler) http.Handler) {
	r.With(guard...).Post("/api/upload", h.upload)
	r.Get("/uploads/{filename}", h.serve)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+formSlack)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusBadRequest, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		respondError(w, http.StatusBadRequest, "File too large")
		return
	}

	url, err := h.service.Upload(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, ErrNoFile):
		respondError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, ErrTooLarge):
		respondError(w, http.StatusBadRequest, "File too large")
	case errors.Is(err, ErrNotImage):
		respondError(w, http.StatusBadRequest, "Only image files are allowed")
	case err != nil:
		h.log.Error("upload failed", "filename", header.Filename, "error", err)
		respondError(w, http.StatusInternalServerError, "Could not save file")
	default:
		h.log.Info("stored upload", "url", url, "size", header.Size)
		respond(w, http.StatusOK, map[string]string{"url": url})
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, modTime, err := h.service.Open(r.Context(), name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("open upload failed", "name", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	http.ServeContent(w, r, name, modTime, f)
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}
