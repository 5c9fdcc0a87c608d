package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/itemstore/internal/logging"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// MiddlewareChain composes middlewares in the order they were added: the
// first added is the outermost wrapper.
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewMiddlewareChain creates a chain holding mws.
func NewMiddlewareChain(mws ...Middleware) *MiddlewareChain {
	mc := &MiddlewareChain{middlewares: make([]Middleware, 0, len(mws))}
	for _, mw := range mws {
		mc.AddMiddleware(mw)
	}
	return mc
}

// DefaultChain is the standard stack: request ID, access log, panic
// recovery, from outer to inner.
func DefaultChain(logger logging.Logger) *MiddlewareChain {
	return NewMiddlewareChain(
		RequestID(),
		AccessLog(logger),
		Recover(logger),
	)
}

// AddMiddleware appends a middleware inside the ones already added.
func (mc *MiddlewareChain) AddMiddleware(mw Middleware) {
	mc.middlewares = append(mc.middlewares, mw)
}

// Apply applies the entire middleware chain to a handler
func (mc *MiddlewareChain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("MiddlewareChain.Apply: handler cannot be nil")
	}
	wrapped := handler
	for i := len(mc.middlewares) - 1; i >= 0; i-- {
		wrapped = mc.middlewares[i](wrapped)
	}
	return wrapped
}

// RequestID tags each request with an ID, reusing an inbound X-Request-ID
// when present and generating a UUID v7 otherwise. The ID is echoed in the
// response and stored in the request context for the logger.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
		})
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// AccessLog writes one line per request after it completes.
func AccessLog(logger logging.Logger) Middleware {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", status,
				"bytes", rec.bytes,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// Recover turns a panic in the handler into the 500 response and logs the
// stack. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as intended.
func Recover(logger logging.Logger) Middleware {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				err, ok := v.(error)
				if !ok {
					err = fmt.Errorf("%v", v)
				}
				log.Error(r.Context(), err, "panic serving request",
					"method", r.Method,
					"path", r.URL.RequestURI(),
					"stack", string(debug.Stack()),
				)
				writeInternalError(w, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
