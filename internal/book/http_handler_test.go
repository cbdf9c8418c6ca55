package book

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmanagement/internal/httpx"
)

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, "USER"))
}

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	testBook := Book{ID: "1", Title: "Test"}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), Query{Genre: "sci-fi", Limit: 10, Offset: 10}).Return([]Book{testBook}, 11, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books?genre=sci-fi&page=2&page_size=10", nil)

		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []Book         `json:"data"`
			Meta map[string]any `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
		assert.EqualValues(t, 2, resp.Meta["total_pages"])
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "123").Return(Book{ID: "123", Title: "Test"}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/123", nil)
		r.SetPathValue("id", "123")

		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "123").Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/123", nil)
		r.SetPathValue("id", "123")

		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("created", func(t *testing.T) {
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
			b.ID = "book-1"
			return nil
		})

		body := `{"title":" Dune ","authors":"Frank Herbert","genre":"sci-fi","publication_date":"1965-08-01"}`
		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewBufferString(body)), "user-1")

		handler.Create(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"title":"Dune"`)
		assert.Contains(t, w.Body.String(), `"created_by":"user-1"`)
	})

	t.Run("future publication date", func(t *testing.T) {
		future := time.Now().AddDate(0, 0, 2).Format(httpx.DateLayout)
		body := `{"title":"Dune","authors":"Frank Herbert","genre":"sci-fi","publication_date":"` + future + `"}`
		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewBufferString(body)), "user-1")

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "publication_date")
	})

	t.Run("missing title", func(t *testing.T) {
		body := `{"authors":"Frank Herbert","genre":"sci-fi","publication_date":"1965-08-01"}`
		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewBufferString(body)), "user-1")

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewBufferString(`{}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_UpdateDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("update forbidden", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "book-1").Return(Book{ID: "book-1", CreatedBy: "owner"}, nil)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodPut, "/v1/books/book-1", bytes.NewBufferString(`{"title":"New"}`)), "intruder")
		r.SetPathValue("id", "book-1")

		handler.Update(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete by owner", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "book-1").Return(Book{ID: "book-1", CreatedBy: "owner"}, nil)
		mockRepo.EXPECT().Delete(gomock.Any(), "book-1").Return(nil)

		w := httptest.NewRecorder()
		r := withUser(httptest.NewRequest(http.MethodDelete, "/v1/books/book-1", nil), "owner")
		r.SetPathValue("id", "book-1")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
