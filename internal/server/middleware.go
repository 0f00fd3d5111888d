package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

func accessLogMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			writer := &respCodeWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(writer, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status_code", writer.code).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket handshake take over the connection.
func (w *respCodeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (w *respCodeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
