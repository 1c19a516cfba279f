package middleware

import "net/http"

// RequireSession sends the browser back to the start page while nobody is
// signed in. signedIn is asked on every request.
func RequireSession(signedIn func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !signedIn() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
