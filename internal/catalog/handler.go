package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Handler exposes the public waiting-room library endpoints.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListBooks handles GET /library/books?author=.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	var (
		books []Book
		err   error
	)
	if author := r.URL.Query().Get("author"); author != "" {
		books, err = h.store.SearchByAuthor(r.Context(), author)
	} else {
		books, err = h.store.ListBooks(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list books", "error", err)
		http.Error(w, "failed to list books", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"books": books})
}

// GetBook handles GET /library/books/{id}.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid book id", http.StatusBadRequest)
		return
	}
	book, err := h.store.GetBook(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "book not found", http.StatusNotFound)
	case err != nil:
		h.logger.Error("failed to load book", "error", err, "book_id", id)
		http.Error(w, "failed to load book", http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(book)
	}
}
