package book

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookmanagement/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createBookReq struct {
	Title           string `json:"title" validate:"required,max=200"`
	Authors         string `json:"authors" validate:"required,max=300"`
	Genre           string `json:"genre" validate:"required,max=100"`
	PublicationDate string `json:"publication_date" validate:"required,past_date"`
	Description     string `json:"description"`
}

type updateBookReq struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Authors         *string `json:"authors" validate:"omitempty,min=1,max=300"`
	Genre           *string `json:"genre" validate:"omitempty,min=1,max=100"`
	PublicationDate *string `json:"publication_date" validate:"omitempty,past_date"`
	Description     *string `json:"description"`
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		httpx.InternalError(w, r, err)
	}
}

// List handles GET /v1/books
// @Summary List books
// @Description Newest first. Optional genre and q (title/authors) filters.
// @Tags books
// @Produce json
// @Security Bearer
// @Param genre query string false "Genre"
// @Param q query string false "Search title and authors"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Genre: strings.TrimSpace(query.Get("genre")),
		Q:     strings.TrimSpace(query.Get("q")),
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// Get handles GET /v1/books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Security Bearer
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /v1/books
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createBookReq true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req createBookReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Authors = strings.TrimSpace(req.Authors)
	req.Genre = strings.TrimSpace(req.Genre)
	req.PublicationDate = strings.TrimSpace(req.PublicationDate)

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	b, err := h.service.Create(r.Context(), userID, Book{
		Title:           req.Title,
		Authors:         req.Authors,
		Genre:           req.Genre,
		PublicationDate: req.PublicationDate,
		Description:     req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b)
}

// Update handles PUT /v1/books/{id}
// @Summary Update a book
// @Description Partial update. Only the creator may update.
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Book ID"
// @Param request body updateBookReq true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req updateBookReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Title = trimPtr(req.Title)
	req.Authors = trimPtr(req.Authors)
	req.Genre = trimPtr(req.Genre)
	req.PublicationDate = trimPtr(req.PublicationDate)

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	b, err := h.service.Update(r.Context(), userID, r.PathValue("id"), Update{
		Title:           req.Title,
		Authors:         req.Authors,
		Genre:           req.Genre,
		PublicationDate: req.PublicationDate,
		Description:     req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /v1/books/{id}
// @Summary Delete a book
// @Description Only the creator may delete. The book leaves every reading list.
// @Tags books
// @Security Bearer
// @Param id path string true "Book ID"
// @Success 204 "No Content"
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	if err := h.service.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
