package content

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Handler exposes the collection CRUD endpoints.
type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts /api/{products,articles,events} and /api/stats.
// Mutating routes are wrapped with guard middlewares.
func (h *Handler) RegisterRoutes(r chi.Router, guard ...func(http.Handler) http.Handler) {
	for _, c := range Collections {
		r.Route("/api/"+string(c), func(r chi.Router) {
			r.Get("/", h.list(c))
			r.Group(func(r chi.Router) {
				r.Use(guard...)
				r.Post("/", h.add(c))
				r.Put("/", h.update(c))
				r.Delete("/{id}", h.delete(c))
			})
		})
	}
	r.Get("/api/stats", h.stats)
}

func (h *Handler) list(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.service.List(r.Context(), c)
		if err != nil {
			h.fail(w, err)
			return
		}
		respond(w, http.StatusOK, records)
	}
}

func (h *Handler) add(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := decodeRecord(w, r)
		if !ok {
			return
		}
		stored, err := h.service.Add(r.Context(), c, rec)
		if err != nil {
			h.fail(w, err)
			return
		}
		respond(w, http.StatusOK, stored)
	}
}

func (h *Handler) update(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := decodeRecord(w, r)
		if !ok {
			return
		}
		updated, err := h.service.Update(r.Context(), c, rec)
		if err != nil {
			h.fail(w, err)
			return
		}
		respond(w, http.StatusOK, updated)
	}
}

func (h *Handler) delete(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Delete(r.Context(), c, chi.URLParam(r, "id")); err != nil {
			h.fail(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (Record, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil || rec == nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return rec, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}
	h.log.Error("collection request failed", "error", err)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError writes {"error": msg} with status.
func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}
