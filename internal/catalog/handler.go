package catalog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/httputil"
	"github.com/ayush/library-api/internal/metrics"
	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/validation"
)

// Handler holds catalog HTTP handlers.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, logger logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: logger.WithField("component", "catalog_http")}
}

// Create adds a book to the catalog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BookInput
	if !h.decode(w, r, &in) {
		return
	}

	book, err := h.svc.AddBook(r.Context(), in)
	var verrs validation.Errors
	switch {
	case err == nil:
		metrics.RecordBookMutation("create")
		httputil.WriteJSON(w, http.StatusCreated, book)
	case errors.As(err, &verrs):
		writeValidation(w, verrs)
	case errors.Is(err, ErrDuplicateISBN):
		httputil.Error(w, http.StatusBadRequest, "A book with this ISBN already exists.")
	case errors.Is(err, ErrStorageConflict):
		h.log.WithError(err).Warn("add book rolled back")
		httputil.Error(w, http.StatusInternalServerError, "Failed to add the book due to a database error.")
	default:
		h.internalError(w, "add book", err)
	}
}

// List returns a page of books; query params page, per_page and search.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	result, err := h.svc.ListBooks(r.Context(), page, perPage, q.Get("search"))
	if err != nil {
		h.internalError(w, "list books", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get returns a single book.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.svc.GetBook(r.Context(), id)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, book)
	case errors.Is(err, ErrBookNotFound):
		httputil.Error(w, http.StatusNotFound, "Book not found")
	default:
		h.internalError(w, "get book", err)
	}
}

// Update applies a partial update; serves both PUT and PATCH.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var patch models.BookPatch
	if !h.decode(w, r, &patch) {
		return
	}

	book, err := h.svc.UpdateBook(r.Context(), id, patch)
	switch {
	case err == nil:
		metrics.RecordBookMutation("update")
		httputil.WriteJSON(w, http.StatusOK, book)
	case errors.Is(err, ErrBookNotFound):
		httputil.Error(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, ErrNoInput):
		httputil.Error(w, http.StatusBadRequest, "No input data provided")
	case errors.Is(err, ErrStorageConflict):
		h.log.WithError(err).Warn("update book rolled back")
		httputil.Error(w, http.StatusInternalServerError, "Failed to update the book due to a database error.")
	default:
		h.internalError(w, "update book", err)
	}
}

// Delete removes a book permanently.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	err := h.svc.DeleteBook(r.Context(), id)
	switch {
	case err == nil:
		metrics.RecordBookMutation("delete")
		httputil.Message(w, http.StatusOK, fmt.Sprintf("Book with ID %d has been deleted", id))
	case errors.Is(err, ErrBookNotFound):
		httputil.Error(w, http.StatusNotFound, "Book not found")
	default:
		h.internalError(w, "delete book", err)
	}
}

// decode reads the JSON body into v. An empty body leaves v untouched; JSON
// type mismatches are answered as field-level validation errors.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := httputil.DecodeJSON(w, r, v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if verrs, ok := validation.FromDecodeError(err); ok {
		writeValidation(w, verrs)
		return false
	}
	httputil.Error(w, http.StatusBadRequest, "invalid request body")
	return false
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.WithError(err).Error(op + " failed")
	httputil.Error(w, http.StatusInternalServerError, "internal error")
}

func writeValidation(w http.ResponseWriter, verrs validation.Errors) {
	httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
}

// bookID parses the {id} URL parameter. Ids that cannot exist answer 404.
func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, http.StatusNotFound, "Book not found")
		return 0, false
	}
	return id, true
}
