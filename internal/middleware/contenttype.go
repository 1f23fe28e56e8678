package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires application/json on requests that carry a body.
// Bodiless POSTs such as /advance are accepted as is.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			writeError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", nil)
			return
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
