package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/auth"
)

var errAdminRequired = errors.New(errors.CodeForbidden, "admin access required")

// accessLog logs every request and feeds the request metrics.
func accessLog(logger *zap.Logger, metrics RequestObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			)

			if metrics != nil {
				metrics.ObserveRequest(r.Method, routePattern(r), status, elapsed)
			}
		})
	}
}

// routePattern keeps metric labels bounded by using the matched pattern
// instead of the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// authenticate requires a valid bearer token and stores the caller's
// identity in the request context.
func authenticate(tokens *auth.Tokens, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := tokens.Verify(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("request rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				respondError(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func requireAdmin(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				respondError(w, logger, auth.ErrMissingToken)
				return
			}
			if !identity.IsAdmin() {
				respondError(w, logger, errAdminRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
