package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type (
	localeContextKey  struct{}
	countryContextKey struct{}
)

var (
	supportedLocales = []language.Tag{language.English, language.Indonesian}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the negotiated locale ("en" or "id") and the client country in
// the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), localeContextKey{}, locale)
			ctx = context.WithValue(ctx, countryContextKey{}, country)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale prefers an explicit X-Locale, then Accept-Language, then the
// client's country, then fallback.
func detectLocale(r *http.Request, fallback string, country string) string {
	for _, header := range []string{"X-Locale", "Accept-Language"} {
		if tag, ok := matchLocale(r.Header.Get(header)); ok {
			return tag
		}
	}
	if country != "" {
		if strings.EqualFold(country, "ID") {
			return "id"
		}
		return "en"
	}
	if tag, ok := matchLocale(fallback); ok {
		return tag
	}
	return "en"
}

func matchLocale(raw string) (string, bool) {
	tags := parseTags(raw)
	if len(tags) == 0 {
		return "", false
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	base, _ := supportedLocales[idx].Base()
	return base.String(), true
}

func parseTags(raw string) []language.Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil {
		return nil
	}
	return tags
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		return strings.TrimSpace(strings.Split(xf, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the negotiated locale, "en" when unset.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}

func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry derives an upper-case country code from proxy headers, the
// region of the requested locale, or a GeoIP lookup, in that order.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, h := range []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return strings.ToUpper(v)
		}
	}
	for _, h := range []string{"X-Locale", "Accept-Language"} {
		if region := localeRegion(r.Header.Get(h)); region != "" {
			return region
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(country))
}

// localeRegion returns the explicit region of the first tag, "ID" for a bare
// Indonesian tag, and "" otherwise.
func localeRegion(raw string) string {
	tags := parseTags(raw)
	if len(tags) == 0 {
		return ""
	}
	if region, conf := tags[0].Region(); conf == language.Exact {
		return region.String()
	}
	if base, _ := tags[0].Base(); base.String() == "id" {
		return "ID"
	}
	return ""
}
