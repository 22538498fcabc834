package controller

import "net/http"

// PreflightBody is written for every OPTIONS request.
const PreflightBody = `{"message":"Preflight call successful"}`

// WithCORS returns a middleware that sets CORS headers for origin on every
// response and answers OPTIONS preflight requests with 200 and PreflightBody.
// Credentials are only allowed for an explicit origin.
func WithCORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

			// preflight never reaches the handlers
			if r.Method == http.MethodOptions {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(PreflightBody))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
