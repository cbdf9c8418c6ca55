package httpx

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder remembers the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	started bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.started {
		return
	}
	sr.status = code
	sr.started = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.started {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.written += int64(n)
	return n, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// AccessLogMiddleware logs one line per request once it has been served.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		log.Printf("access method=%s path=%s status=%d bytes=%d duration_ms=%d ip=%s request_id=%s",
			r.Method, r.URL.Path, sr.status, sr.written,
			time.Since(start).Milliseconds(), ClientIP(r), RequestIDFrom(r))
	})
}
