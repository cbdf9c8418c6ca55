package main

import (
	"context"
	"net/http"
	"time"

	"bookmanagement/internal/auth"
	"bookmanagement/internal/book"
	"bookmanagement/internal/httpx"
	"bookmanagement/internal/readinglist"
	"bookmanagement/internal/user"
)

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	auth        *auth.HTTPHandler
	user        *user.HTTPHandler
	book        *book.HTTPHandler
	readingList *readinglist.HTTPHandler
}

func newRouter(h handlers, jwtSecret string, revocations httpx.RevocationChecker, db Pinger) *http.ServeMux {
	router := http.NewServeMux()
	protect := httpx.AuthMiddleware(jwtSecret, revocations)
	secured := func(fn http.HandlerFunc) http.Handler {
		return protect(fn)
	}

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("POST /v1/auth/register", h.auth.Register)
	router.HandleFunc("POST /v1/auth/login", h.auth.Login)
	router.HandleFunc("POST /v1/auth/refresh", h.auth.Refresh)
	router.Handle("POST /v1/auth/logout", secured(h.auth.Logout))
	router.Handle("GET /v1/auth/profile", secured(h.user.GetProfile))
	router.Handle("PUT /v1/auth/profile", secured(h.user.UpdateProfile))

	router.Handle("GET /v1/books", secured(h.book.List))
	router.Handle("POST /v1/books", secured(h.book.Create))
	router.Handle("GET /v1/books/{id}", secured(h.book.Get))
	router.Handle("PUT /v1/books/{id}", secured(h.book.Update))
	router.Handle("DELETE /v1/books/{id}", secured(h.book.Delete))

	router.Handle("GET /v1/reading-lists", secured(h.readingList.List))
	router.Handle("POST /v1/reading-lists", secured(h.readingList.Create))
	router.Handle("GET /v1/reading-lists/{id}", secured(h.readingList.Get))
	router.Handle("PUT /v1/reading-lists/{id}", secured(h.readingList.Update))
	router.Handle("DELETE /v1/reading-lists/{id}", secured(h.readingList.Delete))
	router.Handle("POST /v1/reading-lists/{id}/add-book", secured(h.readingList.AddBook))
	router.Handle("DELETE /v1/reading-lists/{id}/remove-book/{book_id}", secured(h.readingList.RemoveBook))
	router.Handle("PUT /v1/reading-lists/{id}/reorder", secured(h.readingList.Reorder))

	return router
}
