package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language
// comes from the "lang" query parameter, then the Accept-Language header,
// then the fallback given to Init.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := NewLocalizer(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
	})
}
