package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging пишет метод, путь, статус и длительность каждого запроса
// и считает запросы в scope "http"
func Logging(logger *zap.Logger, scope tally.Scope) func(http.Handler) http.Handler {
	requests := scope.SubScope("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{w, http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			tagged := requests.Tagged(map[string]string{"method": r.Method, "status": strconv.Itoa(rw.statusCode)})
			tagged.Counter("requests").Inc(1)
			tagged.Timer("latency").Record(duration)

			logger.Info("📨 Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", duration))
		})
	}
}
