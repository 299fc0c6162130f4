package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/md-rashed-zaman/staffplan/libs/httpx"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/csvimport"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

// DefaultMaxUpload bounds CSV uploads.
const DefaultMaxUpload = 10 << 20

type EntityService[T any] interface {
	Create(ctx context.Context, v *T) (T, error)
	Update(ctx context.Context, id int64, v *T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, items []T) error
}

// Resource serves CRUD and CSV import for one entity under path.
type Resource[T model.Entity] struct {
	path      string
	svc       EntityService[T]
	schema    csvimport.Schema[T]
	errs      *Errors
	logger    *slog.Logger
	maxUpload int64
}

func NewResource[T model.Entity](path string, svc EntityService[T], schema csvimport.Schema[T], errs *Errors, logger *slog.Logger) *Resource[T] {
	return &Resource[T]{
		path:      path,
		svc:       svc,
		schema:    schema,
		errs:      errs,
		logger:    logger,
		maxUpload: DefaultMaxUpload,
	}
}

func (h *Resource[T]) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+h.path, h.Create)
	mux.HandleFunc("GET "+h.path, h.List)
	mux.HandleFunc("POST "+h.path+"/import", h.Import)
	mux.HandleFunc("GET "+h.path+"/{id}", h.Get)
	mux.HandleFunc("PUT "+h.path+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+h.path+"/{id}", h.Delete)
}

func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var in T
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	created, err := h.svc.Create(r.Context(), &in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/%d", h.path, created.EntityID()))
	w.WriteHeader(http.StatusCreated)
}

func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	var in T
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, &in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

func (h *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import reads the multipart field "file" and stores every row or none.
func (h *Resource[T]) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		h.errs.Write(w, r, fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest))
		return
	}
	defer file.Close()

	items, err := csvimport.Decode(file, h.schema)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.svc.Import(r.Context(), items); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.logger.Info("csv imported", "path", h.path, "rows", len(items))
	w.WriteHeader(http.StatusOK)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id must be a positive integer (got %q)", errBadRequest, raw)
	}
	return id, nil
}
