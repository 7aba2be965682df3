package core

import (
	"log"
	"net/http"
	"time"
)

// All middleware should conform to fn(next http.Handler) http.Handler
//
// Differentiate from the Handler by ussing suffix
func (a *App) RequestLogMiddleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		t1 := time.Now()
		next.ServeHTTP(w, r)
		t2 := time.Now()
		log.Printf("[%s] %q %v\n", r.Method, r.URL.String(), t2.Sub(t1))
	}

	return http.HandlerFunc(fn)
}
