package middleware

import (
	"context"
	"net/http"

	"bulkgen/internal/infra/geoip"
)

const countryKey contextKey = "country"

// Country stores the caller's country code for the access log. A nil locator
// disables the lookup.
func Country(locator geoip.Locator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if locator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code := locator.Country(clientIPForRateLimit(r)); code != "" {
				r = r.WithContext(context.WithValue(r.Context(), countryKey, code))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}
