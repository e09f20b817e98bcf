package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/gearguard/internal/pkg/log"
)

// errServiceTimeout - причина отмены контекста по timeouts.service.
var errServiceTimeout = errors.New("service timeout")

// Timeout ограничивает обработку запроса временем d (timeouts.service).
// Storage и сервис получают дедлайн через контекст; при его срабатывании
// ответ мапится в 504. Уже заданный дедлайн сохраняется, d <= 0 отключает мидлвар.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeoutCause(r.Context(), d, errServiceTimeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(context.Cause(ctx), errServiceTimeout) {
				log.From(ctx).Warn("request_deadline_exceeded",
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", d),
				)
			}
		})
	}
}
