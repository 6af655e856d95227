package log

import (
	"log/slog"
	"net"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request after it completes. 4xx responses
// log at warn, 5xx at error.
func RequestLogger(next http.Handler) http.Handler {
	logger := ForComponent(ComponentHTTP)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		switch {
		case rec.status >= 500:
			level = slog.LevelError
		case rec.status >= 400:
			level = slog.LevelWarn
		}

		logger.Log(r.Context(), level, "HTTP request completed",
			FieldMethod, r.Method,
			FieldPath, r.URL.Path,
			FieldStatusCode, rec.status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, ClientIP(r),
			FieldUserAgent, r.Header.Get("User-Agent"),
		)
	})
}

// ClientIP resolves the caller address, preferring proxy headers when
// present.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
