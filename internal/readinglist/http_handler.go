package readinglist

import (
	"errors"
	"net/http"
	"strings"

	"bookmanagement/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createListReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type updateListReq struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description"`
}

type addBookReq struct {
	BookID string `json:"book_id"`
	Order  *int   `json:"order"`
}

type reorderReq struct {
	Orderings  []Ordering `json:"orderings"`
	BookOrders []Ordering `json:"book_orders"`
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	default:
		httpx.InternalError(w, r, err)
	}
}

func (h *HTTPHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return "", false
	}
	return userID, true
}

// List handles GET /v1/reading-lists
// @Summary List my reading lists
// @Tags reading-lists
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/reading-lists [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	lists, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, lists, map[string]any{"total": len(lists)})
}

// Create handles POST /v1/reading-lists
// @Summary Create a reading list
// @Tags reading-lists
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createListReq true "Reading list"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/reading-lists [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createListReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	l, err := h.service.CreateList(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, l)
}

// Get handles GET /v1/reading-lists/{id}
// @Summary Get a reading list with its books in order
// @Tags reading-lists
// @Produce json
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}

// Update handles PUT /v1/reading-lists/{id}
// @Summary Rename or describe a reading list
// @Tags reading-lists
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Param request body updateListReq true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updateListReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	l, err := h.service.UpdateList(r.Context(), userID, r.PathValue("id"), ListUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, l, nil)
}

// Delete handles DELETE /v1/reading-lists/{id}
// @Summary Delete a reading list
// @Tags reading-lists
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Success 204 "No Content"
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteList(r.Context(), userID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// AddBook handles POST /v1/reading-lists/{id}/add-book
// @Summary Add a book to a reading list
// @Description Without order the book is appended. With order the books from that position on move down one place.
// @Tags reading-lists
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Param request body addBookReq true "Book and optional position"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id}/add-book [post]
func (h *HTTPHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req addBookReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.service.AddBook(r.Context(), userID, r.PathValue("id"), strings.TrimSpace(req.BookID), req.Order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, item)
}

// RemoveBook handles DELETE /v1/reading-lists/{id}/remove-book/{book_id}
// @Summary Remove a book from a reading list
// @Tags reading-lists
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Param book_id path string true "Book ID"
// @Success 204 "No Content"
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id}/remove-book/{book_id} [delete]
func (h *HTTPHandler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveBook(r.Context(), userID, r.PathValue("id"), r.PathValue("book_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Reorder handles PUT /v1/reading-lists/{id}/reorder
// @Summary Set the order of books in a reading list
// @Description Each pair overwrites one book's order. Unknown books are skipped and the result is not checked for gaps.
// @Tags reading-lists
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reading list ID"
// @Param request body reorderReq true "Orderings"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/reading-lists/{id}/reorder [put]
func (h *HTTPHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req reorderReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	// orderings wins; book_orders is read only when orderings is absent or empty.
	orderings := req.Orderings
	if len(orderings) == 0 {
		orderings = req.BookOrders
	}

	listID := r.PathValue("id")
	applied, err := h.service.Reorder(r.Context(), userID, listID, orderings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.Get(r.Context(), userID, listID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, d, map[string]any{"applied": applied})
}
